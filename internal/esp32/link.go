package esp32

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.bug.st/serial"

	"caren/pkg/models"
)

// DefaultBaudRate - velocidade padrão da ligação com o ESP32
const DefaultBaudRate = 115200

// Link é a ligação serial com o ESP32: recebe linhas JSON com o estado
// dos sensores e envia comandos discretos para os motores. O quadro mais
// recente fica numa caché de escritor único; os leitores recebem uma
// cópia consistente, nunca um quadro rasgado.
type Link struct {
	portName string
	baudRate int

	mu        sync.Mutex
	port      serial.Port
	connected bool

	frameMu     sync.Mutex
	latest      models.SensorFrame
	fresh       bool
	frames      int64
	parseErrors int64
}

// NewLink cria a ligação para a porta dada (ex: /dev/ttyUSB0)
func NewLink(portName string, baudRate int) *Link {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Link{
		portName: portName,
		baudRate: baudRate,
	}
}

// NewLinkWithPort cria a ligação sobre uma porta já aberta (testes)
func NewLinkWithPort(port serial.Port) *Link {
	return &Link{
		port:      port,
		connected: true,
		baudRate:  DefaultBaudRate,
	}
}

// Connect abre a porta serial em 8N1
func (l *Link) Connect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mode := &serial.Mode{
		BaudRate: l.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(l.portName, mode)
	if err != nil {
		l.connected = false
		return fmt.Errorf("erro ao abrir a porta serial %s: %v", l.portName, err)
	}

	l.port = port
	l.connected = true
	return nil
}

// Disconnect fecha a porta serial
func (l *Link) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port != nil {
		l.port.Close()
		l.port = nil
	}
	l.connected = false
}

// IsConnected verifica se a ligação está aberta
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected && l.port != nil
}

// Monitor lê linhas da porta e atualiza a caché de quadros até o contexto
// ser cancelado ou a porta falhar. Deve rodar em goroutine própria - é o
// único escritor da caché.
func (l *Link) Monitor(ctx context.Context) error {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()

	if port == nil {
		return fmt.Errorf("porta serial não conectada")
	}

	scanner := bufio.NewScanner(port)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		l.handleLine(line)
	}

	l.mu.Lock()
	l.connected = false
	l.mu.Unlock()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("erro de leitura serial: %v", err)
	}
	return nil
}

// handleLine parseia uma linha JSON do ESP32. Linha inválida é descartada
// sem tocar na caché - o quadro anterior continua válido.
func (l *Link) handleLine(line []byte) {
	var frame models.SensorFrame
	if err := json.Unmarshal(line, &frame); err != nil {
		l.frameMu.Lock()
		l.parseErrors++
		l.frameMu.Unlock()
		return
	}

	l.frameMu.Lock()
	l.latest = frame
	l.fresh = true
	l.frames++
	l.frameMu.Unlock()
}

// Frame retorna o quadro mais recente. ok=false quando nenhum quadro novo
// chegou desde a última chamada.
func (l *Link) Frame() (models.SensorFrame, bool) {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()

	frame := l.latest
	ok := l.fresh
	l.fresh = false
	return frame, ok
}

// Send envia um comando de movimento para o ESP32
func (l *Link) Send(action models.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected || l.port == nil {
		return fmt.Errorf("não conectado ao ESP32")
	}

	if _, err := l.port.Write([]byte(string(action) + "\n")); err != nil {
		return fmt.Errorf("erro ao enviar comando %s: %v", action, err)
	}
	return nil
}

// FramesReceived retorna o total de quadros parseados
func (l *Link) FramesReceived() int64 {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	return l.frames
}

// ParseErrors retorna o total de linhas descartadas por JSON inválido
func (l *Link) ParseErrors() int64 {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	return l.parseErrors
}
