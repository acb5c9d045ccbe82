package goal

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"caren/pkg/models"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	t.Run("objetivo fixo", func(t *testing.T) {
		t.Parallel()
		p := NewStaticProvider(&models.Goal{X: 2, Y: 3})

		got := p.Current()
		assert.NotNil(t, got)
		assert.Equal(t, models.Goal{X: 2, Y: 3}, *got)

		// Chamadas repetidas devolvem o mesmo objetivo
		assert.Equal(t, got, p.Current())
	})

	t.Run("sem objetivo", func(t *testing.T) {
		t.Parallel()
		p := NewStaticProvider(nil)
		assert.Nil(t, p.Current())
	})
}

func TestNewRedisProvider_Unreachable(t *testing.T) {
	t.Parallel()

	// Sem servidor: o construtor falha em vez de devolver um provider morto
	_, err := NewRedisProvider("127.0.0.1:1", "", 0, nil)
	assert.Error(t, err)
}

func TestRedisProvider_CurrentNeverTouchesNetwork(t *testing.T) {
	t.Parallel()

	// Provider com cache preenchido e Redis inalcançável: Current devolve
	// o cache sem bloquear no tempo de um tick
	p := &RedisProvider{
		client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		key:    DefaultKey,
		last:   &models.Goal{X: 1.5, Y: -2},
	}
	defer p.client.Close()

	start := time.Now()
	got := p.Current()
	elapsed := time.Since(start)

	assert.NotNil(t, got)
	assert.Equal(t, models.Goal{X: 1.5, Y: -2}, *got)
	assert.Less(t, elapsed, 50*time.Millisecond)
}

func TestRedisProvider_RefreshKeepsLastOnError(t *testing.T) {
	t.Parallel()

	// Queda do Redis durante o poll mantém o último objetivo conhecido
	p := &RedisProvider{
		client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		key:    DefaultKey,
		last:   &models.Goal{X: 4, Y: 7},
	}
	defer p.client.Close()

	p.refresh(context.Background())

	got := p.Current()
	assert.NotNil(t, got)
	assert.Equal(t, models.Goal{X: 4, Y: 7}, *got)
}
