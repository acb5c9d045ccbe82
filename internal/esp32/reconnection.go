package esp32

import (
	"fmt"
	"log"
	"time"

	"caren/pkg/models"
)

// ReconnectionManager gerencia reconexão automática da ligação serial
type ReconnectionManager struct {
	link              *Link
	maxRetries        int
	retryInterval     time.Duration
	isReconnecting    bool
	connectionLost    bool
	consecutiveErrors int
	lastError         error
}

// NewReconnectionManager cria um novo gerenciador de reconexão
func NewReconnectionManager(link *Link) *ReconnectionManager {
	return &ReconnectionManager{
		link:              link,
		maxRetries:        10,              // Máximo 10 tentativas
		retryInterval:     3 * time.Second, // Tentar a cada 3 segundos
		isReconnecting:    false,
		connectionLost:    false,
		consecutiveErrors: 0,
	}
}

// CheckConnectionHealth verifica se a ligação está saudável
func (rm *ReconnectionManager) CheckConnectionHealth(err error) bool {
	if err != nil {
		rm.consecutiveErrors++
		rm.lastError = err

		// Muitos erros consecutivos indicam ligação perdida
		if rm.consecutiveErrors >= 5 {
			if !rm.connectionLost {
				rm.connectionLost = true
				log.Printf("🔴 ESP32: Ligação perdida detectada após %d erros consecutivos", rm.consecutiveErrors)
				log.Printf("🔴 ESP32: Último erro: %v", err)
			}
			return false
		}
	} else {
		// Reset contador se comando bem sucedido
		if rm.consecutiveErrors > 0 {
			log.Printf("✅ ESP32: Ligação estável - resetando contador de erros")
		}
		rm.consecutiveErrors = 0
		rm.connectionLost = false
	}

	return true
}

// StartReconnection inicia processo de reconexão automática
func (rm *ReconnectionManager) StartReconnection() error {
	if rm.isReconnecting {
		return nil // Já está tentando reconectar
	}

	rm.isReconnecting = true

	log.Printf("🔄 ESP32: Iniciando reconexão automática...")

	for attempt := 1; attempt <= rm.maxRetries; attempt++ {
		log.Printf("🔄 ESP32: Tentativa de reconexão %d/%d", attempt, rm.maxRetries)

		// Fechar a porta atual (se existir)
		rm.link.Disconnect()

		// Aguardar antes de tentar reconectar
		time.Sleep(rm.retryInterval)

		// Tentar reabrir a porta
		err := rm.link.Connect()
		if err != nil {
			log.Printf("❌ ESP32: Tentativa %d falhou: %v", attempt, err)
			continue
		}

		// Parar os motores ao recuperar a ligação - estado seguro
		if err := rm.link.Send(models.ActionStop); err != nil {
			log.Printf("❌ ESP32: Falha ao enviar paragem na tentativa %d: %v", attempt, err)
			rm.link.Disconnect()
			continue
		}

		// Sucesso!
		log.Printf("✅ ESP32: Reconectado com sucesso na tentativa %d", attempt)
		rm.isReconnecting = false
		rm.connectionLost = false
		rm.consecutiveErrors = 0

		return nil
	}

	// Todas as tentativas falharam
	rm.isReconnecting = false
	return fmt.Errorf("falha ao reconectar após %d tentativas", rm.maxRetries)
}

// IsReconnecting verifica se está em processo de reconexão
func (rm *ReconnectionManager) IsReconnecting() bool {
	return rm.isReconnecting
}

// IsConnectionLost verifica se a ligação foi perdida
func (rm *ReconnectionManager) IsConnectionLost() bool {
	return rm.connectionLost
}

// GetConsecutiveErrors retorna número de erros consecutivos
func (rm *ReconnectionManager) GetConsecutiveErrors() int {
	return rm.consecutiveErrors
}

// GetLastError retorna o último erro
func (rm *ReconnectionManager) GetLastError() error {
	return rm.lastError
}

// ResetErrorCount reseta contador de erros
func (rm *ReconnectionManager) ResetErrorCount() {
	rm.consecutiveErrors = 0
	rm.connectionLost = false
	rm.lastError = nil
}
