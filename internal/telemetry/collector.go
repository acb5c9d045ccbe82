package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"caren/pkg/models"
)

// requestTimeout limita cada envio ao coletor remoto
const requestTimeout = 2 * time.Second

// Collector envia cada decisão para o serviço de coleta HTTP da estação
// base. O envio é assíncrono - o ciclo de controle nunca espera a rede.
type Collector struct {
	baseURL string
	client  *http.Client

	mu        sync.Mutex
	sent      int64
	failures  int64
	onFailure FailureHandler
}

// FailureHandler recebe os erros de envio para registro
type FailureHandler func(err error)

// logEntry é o corpo enviado ao endpoint /log do coletor
type logEntry struct {
	EstadoCompleto models.SensorSnapshot `json:"estado_completo"`
	AccionTomada   models.Action         `json:"accion_tomada"`
}

// NewCollector cria o cliente do coletor remoto
func NewCollector(baseURL string) *Collector {
	return &Collector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// SetFailureHandler registra o callback de erro de envio
func (c *Collector) SetFailureHandler(fn FailureHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// Emit envia a decisão em goroutine própria. Falha de rede é registrada
// e descartada - telemetria nunca bloqueia o robô.
func (c *Collector) Emit(record models.DecisionRecord) {
	go c.send(record)
}

func (c *Collector) send(record models.DecisionRecord) {
	body, err := json.Marshal(logEntry{
		EstadoCompleto: record.Snapshot,
		AccionTomada:   record.Action,
	})
	if err != nil {
		c.fail(err)
		return
	}

	resp, err := c.client.Post(c.baseURL+"/log", "application/json", bytes.NewReader(body))
	if err != nil {
		c.fail(err)
		return
	}
	resp.Body.Close()

	c.mu.Lock()
	c.sent++
	c.mu.Unlock()
}

// CheckAlive verifica se o coletor responde. Qualquer resposta HTTP conta
// como vivo, inclusive 405 de método não permitido.
func (c *Collector) CheckAlive() bool {
	resp, err := c.client.Get(c.baseURL + "/log")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Sent retorna o total de decisões entregues
func (c *Collector) Sent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Failures retorna o total de envios falhados
func (c *Collector) Failures() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func (c *Collector) fail(err error) {
	c.mu.Lock()
	c.failures++
	fn := c.onFailure
	c.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}
