package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caren/pkg/models"
)

func TestCollector_EmitPostsDecision(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/log", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		mu.Lock()
		received = body
		mu.Unlock()
	}))
	defer server.Close()

	collector := NewCollector(server.URL)
	collector.Emit(models.DecisionRecord{
		Action: models.ActionAdvance,
		Snapshot: models.SensorSnapshot{
			Ultrasonics: models.UltrasonicReadings{Front: 42},
		},
	})

	// Envio assíncrono: esperar a entrega
	assert.Eventually(t, func() bool {
		return collector.Sent() == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, received)
	assert.Equal(t, "AVANZAR", received["accion_tomada"])
	assert.Contains(t, received, "estado_completo")
}

func TestCollector_FailureIsRecorded(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotErr error

	collector := NewCollector("http://127.0.0.1:1")
	collector.SetFailureHandler(func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	})

	collector.Emit(models.DecisionRecord{Action: models.ActionStop})

	assert.Eventually(t, func() bool {
		return collector.Failures() == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Error(t, gotErr)
}

func TestCollector_CheckAlive(t *testing.T) {
	t.Parallel()

	t.Run("servidor responde", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
		defer server.Close()

		// 405 também conta: o serviço está vivo, só não aceita GET
		assert.True(t, NewCollector(server.URL).CheckAlive())
	})

	t.Run("servidor fora do ar", func(t *testing.T) {
		t.Parallel()
		assert.False(t, NewCollector("http://127.0.0.1:1").CheckAlive())
	})
}

func TestFanout_DeliversToAllSinks(t *testing.T) {
	t.Parallel()

	a := &recordingSink{}
	b := &recordingSink{}

	fanout := NewFanout(a, nil, b)
	fanout.Emit(models.DecisionRecord{Action: models.ActionTurnLeft})

	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
	assert.Equal(t, models.ActionTurnLeft, a.records[0].Action)
}

type recordingSink struct {
	records []models.DecisionRecord
}

func (s *recordingSink) Emit(record models.DecisionRecord) {
	s.records = append(s.records, record)
}
