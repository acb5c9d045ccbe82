package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caren/pkg/models"
)

func TestPredictor_Predict(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "estado")

		json.NewEncoder(w).Encode(map[string]string{"accion": "GIRAR_IZQUIERDA"})
	}))
	defer server.Close()

	p := NewPredictor(server.URL, "")
	got := p.Predict(models.SensorSnapshot{})
	assert.Equal(t, models.ActionTurnLeft, got)
	assert.Equal(t, int64(0), p.Failures())
}

func TestPredictor_FailuresReturnStop(t *testing.T) {
	t.Parallel()

	t.Run("serviço fora do ar", func(t *testing.T) {
		t.Parallel()
		p := NewPredictor("http://127.0.0.1:1", "")
		assert.Equal(t, models.ActionStop, p.Predict(models.SensorSnapshot{}))
		assert.Equal(t, int64(1), p.Failures())
	})

	t.Run("status de erro", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		p := NewPredictor(server.URL, "")
		assert.Equal(t, models.ActionStop, p.Predict(models.SensorSnapshot{}))
	})

	t.Run("ação desconhecida", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"accion": "VOAR"})
		}))
		defer server.Close()

		p := NewPredictor(server.URL, "")
		assert.Equal(t, models.ActionStop, p.Predict(models.SensorSnapshot{}))
		assert.Equal(t, int64(1), p.Failures())
	})

	t.Run("callback de falha chamado", func(t *testing.T) {
		t.Parallel()
		p := NewPredictor("http://127.0.0.1:1", "")

		var gotErr error
		p.SetFailureHandler(func(err error) { gotErr = err })

		p.Predict(models.SensorSnapshot{})
		assert.Error(t, gotErr)
	})
}

func TestPredictor_CheckAvailable(t *testing.T) {
	t.Parallel()

	t.Run("serviço responde", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
		defer server.Close()

		assert.True(t, NewPredictor(server.URL, "").CheckAvailable())
	})

	t.Run("nada disponível", func(t *testing.T) {
		t.Parallel()
		assert.False(t, NewPredictor("http://127.0.0.1:1", "/caminho/inexistente.tflite").CheckAvailable())
	})

	t.Run("arquivo do modelo presente", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "modelo.tflite")
		require.NoError(t, os.WriteFile(path, []byte("modelo"), 0644))

		assert.True(t, NewPredictor("http://127.0.0.1:1", path).CheckAvailable())
	})
}
