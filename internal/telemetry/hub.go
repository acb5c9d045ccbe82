package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"caren/pkg/models"
)

const (
	// Registros em fila por painel; cheio significa painel lento e o
	// registro é descartado - o ciclo de controle nunca espera
	panelSendBuffer = 16

	// Escrita que não completa neste prazo derruba o painel
	panelWriteTimeout = 2 * time.Second
)

// panelClient é um painel conectado com sua fila própria de envio
type panelClient struct {
	conn *websocket.Conn
	send chan models.DecisionRecord
}

// Hub gerencia as conexões WebSocket dos painéis de monitoramento.
// Cada painel tem um escritor dedicado com fila limitada: um painel que
// para de ler perde registros e acaba desconectado, nunca atrasa Emit.
type Hub struct {
	clients    map[*panelClient]bool
	register   chan *panelClient
	unregister chan *panelClient
	mutex      sync.Mutex
	connCount  int // Contador de conexões ativas
	dropped    int64
}

// NewHub cria um novo hub de WebSockets
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*panelClient]bool),
		register:   make(chan *panelClient),
		unregister: make(chan *panelClient),
		connCount:  0,
	}
}

// Run inicia o hub de WebSockets. Termina quando o contexto é cancelado,
// fechando todos os painéis.
func (hub *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			hub.mutex.Lock()
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			hub.connCount = 0
			hub.mutex.Unlock()
			return

		case client := <-hub.register:
			hub.mutex.Lock()
			// Verificar se o cliente já está registrado
			if _, exists := hub.clients[client]; !exists {
				hub.clients[client] = true
				hub.connCount++
				log.Printf("Novo painel conectado. ID: %p, Total: %d", client.conn, hub.connCount)
			}
			hub.mutex.Unlock()

		case client := <-hub.unregister:
			hub.mutex.Lock()
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				hub.connCount--
				log.Printf("Painel desconectado. ID: %p, Total: %d", client.conn, hub.connCount)
				close(client.send)
			}
			hub.mutex.Unlock()
		}
	}
}

// Emit entrega a decisão à fila de cada painel sem nunca bloquear.
// Fila cheia descarta o registro para aquele painel.
func (hub *Hub) Emit(record models.DecisionRecord) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for client := range hub.clients {
		select {
		case client.send <- record:
		default:
			hub.dropped++
		}
	}
}

// GetConnectedCount retorna número de painéis conectados
func (hub *Hub) GetConnectedCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return hub.connCount
}

// DroppedRecords retorna o total de registros descartados por painéis lentos
func (hub *Hub) DroppedRecords() int64 {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return hub.dropped
}

// writePump drena a fila do painel para a conexão. Escrita com prazo:
// painel que não consome a tempo é fechado.
func (hub *Hub) writePump(client *panelClient) {
	defer client.conn.Close()

	for record := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(panelWriteTimeout))
		if err := client.conn.WriteJSON(record); err != nil {
			log.Printf("Erro ao enviar decisão: %v. Removendo painel: %p", err, client.conn)
			hub.drop(client)
			return
		}
	}
}

// drop remove o painel sem bloquear caso o Run já tenha terminado
func (hub *Hub) drop(client *panelClient) {
	select {
	case hub.unregister <- client:
	default:
		hub.mutex.Lock()
		if _, ok := hub.clients[client]; ok {
			delete(hub.clients, client)
			hub.connCount--
		}
		hub.mutex.Unlock()
	}
}

// Configuração de websocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Permitir todas as origens
		return true
	},
}

// HandleWebSocket trata conexões WebSocket
func (hub *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Verificar se é uma requisição WebSocket legítima
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "Não é uma requisição WebSocket válida", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Erro ao fazer upgrade para WebSocket: %v", err)
		return
	}

	client := &panelClient{
		conn: conn,
		send: make(chan models.DecisionRecord, panelSendBuffer),
	}

	// Registrar nova conexão
	hub.register <- client

	go hub.writePump(client)

	// Monitorar desconexões
	go func() {
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Printf("Erro WebSocket: %v", err)
				}
				hub.drop(client)
				break
			}

			// Responder a ping/pong
			if messageType == websocket.PingMessage {
				if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
					log.Printf("Erro ao enviar pong: %v", err)
					hub.drop(client)
					break
				}
			}
		}
	}()
}

// ServeHTTP inicia o servidor HTTP do painel na porta dada
func (hub *Hub) ServeHTTP(port int) {
	// Endpoint WebSocket
	http.HandleFunc("/ws", hub.HandleWebSocket)

	// API para obter informações do sistema
	http.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		info := struct {
			Version string `json:"version"`
			Name    string `json:"name"`
		}{
			Version: "1.0.0",
			Name:    "Caren Motion Controller",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Servidor Web e WebSocket iniciado na porta %d", port)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Printf("Erro no servidor HTTP do painel: %v", err)
	}
}
