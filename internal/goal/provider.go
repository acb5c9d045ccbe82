package goal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"caren/pkg/models"
)

// DefaultKey - chave Redis onde a estação base escreve o objetivo atual
const DefaultKey = "caren:objetivo"

// fetchTimeout limita cada leitura do Redis no poller de fundo
const fetchTimeout = 500 * time.Millisecond

// pollInterval - cadência do poller de fundo. O objetivo muda em escala
// humana; 1s é folgado para a estação base e barato para o Redis.
const pollInterval = 1 * time.Second

// RedisProvider lê o objetivo de navegação do Redis. O objetivo é um JSON
// {"x": ..., "y": ...} escrito pela estação base. Um poller de fundo
// mantém o cache; Current devolve o cache sem tocar a rede, então uma
// queda do Redis nunca atrasa o ciclo de controle. Quando o Redis falha,
// o último objetivo conhecido continua em vigor.
type RedisProvider struct {
	client *redis.Client
	key    string

	mu   sync.Mutex
	last *models.Goal

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisProvider conecta ao Redis, valida a ligação com ping e inicia
// o poller de fundo
func NewRedisProvider(addr, password string, db int, fallback *models.Goal) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("erro ao conectar ao Redis em %s: %v", addr, err)
	}

	pollCtx, pollCancel := context.WithCancel(context.Background())
	p := &RedisProvider{
		client: client,
		key:    DefaultKey,
		last:   fallback,
		cancel: pollCancel,
		done:   make(chan struct{}),
	}

	go p.poll(pollCtx)

	return p, nil
}

// poll atualiza o cache na cadência fixa até o Close
func (p *RedisProvider) poll(ctx context.Context) {
	defer close(p.done)

	p.refresh(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh faz uma leitura do Redis e atualiza o cache. Chave ausente
// significa sem objetivo; erro de ligação ou JSON inválido mantém o
// último objetivo conhecido.
func (p *RedisProvider) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	raw, err := p.client.Get(fetchCtx, p.key).Result()
	if err == redis.Nil {
		p.mu.Lock()
		p.last = nil
		p.mu.Unlock()
		return
	}
	if err != nil {
		return
	}

	var g models.Goal
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return
	}

	p.mu.Lock()
	p.last = &g
	p.mu.Unlock()
}

// Current retorna o objetivo em cache. Nunca bloqueia nem toca a rede.
func (p *RedisProvider) Current() *models.Goal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Close para o poller e fecha a ligação com o Redis
func (p *RedisProvider) Close() error {
	p.cancel()
	<-p.done
	return p.client.Close()
}

// StaticProvider devolve sempre o mesmo objetivo. Usado quando o Redis não
// está configurado e o robô opera com um destino fixo.
type StaticProvider struct {
	goal *models.Goal
}

// NewStaticProvider cria um provider com objetivo fixo (pode ser nil)
func NewStaticProvider(goal *models.Goal) *StaticProvider {
	return &StaticProvider{goal: goal}
}

// Current retorna o objetivo fixo
func (p *StaticProvider) Current() *models.Goal {
	return p.goal
}
