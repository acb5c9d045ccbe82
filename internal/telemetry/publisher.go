package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"caren/pkg/models"
)

// DefaultSubject - tópico NATS onde as decisões são publicadas
const DefaultSubject = "caren.decisoes"

// Publisher publica cada decisão no NATS para os consumidores da frota.
// Quando o NATS não está configurado o publisher é um no-op silencioso.
type Publisher struct {
	conn    *nats.Conn
	subject string
	mutex   sync.Mutex
	enabled bool
}

// NewPublisher cria um novo publisher NATS
func NewPublisher(subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		subject: subject,
		enabled: false,
	}
}

// Connect conecta ao servidor NATS
func (p *Publisher) Connect(natsURL string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Opções de conexão com retry automático
	opts := []nats.Option{
		nats.Name("Caren-Decision-Publisher"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry infinito
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS desconectado: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconectado: %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS conexão fechada")
		}),
	}

	var err error
	p.conn, err = nats.Connect(natsURL, opts...)
	if err != nil {
		p.enabled = false
		return fmt.Errorf("erro ao conectar ao NATS: %v", err)
	}

	p.enabled = true
	log.Printf("NATS conectado em: %s", natsURL)
	return nil
}

// Emit publica a decisão no tópico configurado
func (p *Publisher) Emit(record models.DecisionRecord) {
	if err := p.publish(record); err != nil {
		log.Printf("Erro ao publicar decisão no NATS: %v", err)
	}
}

func (p *Publisher) publish(record models.DecisionRecord) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		// Sem NATS configurado o robô segue normalmente
		return nil
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("erro ao serializar decisão: %v", err)
	}

	if err := p.conn.Publish(p.subject, jsonData); err != nil {
		return fmt.Errorf("erro ao publicar no NATS em %s: %v", p.subject, err)
	}

	return nil
}

// Disconnect desconecta do NATS
func (p *Publisher) Disconnect() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.enabled = false
		log.Println("NATS desconectado")
	}
}

// IsConnected verifica se está conectado ao NATS
func (p *Publisher) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled && p.conn != nil && p.conn.IsConnected()
}
