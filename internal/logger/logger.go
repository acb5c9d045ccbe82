package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"caren/pkg/models"
)

type LogConfig struct {
	BasePath         string        // Caminho base para logs
	MaxFileSize      int64         // Tamanho máximo por arquivo (bytes)
	RetentionDays    int           // Dias para manter logs
	RotationInterval time.Duration // Intervalo de rotação
	EnableDebug      bool          // Habilitar logs de debug
	CleanupInterval  time.Duration // Intervalo entre limpezas

	// Controle de saída no console (stdout). Default: false (silencioso).
	ConsoleOutput bool

	// Throttling interno para mensagens repetidas
	ThrottleInterval   time.Duration // intervalo para agrupar logs repetidos
	ThrottleMaxRepeats int           // limite de contagem antes de resetar
}

// SystemLogger grava os eventos do controlador em arquivos por categoria
// com rotação diária e limpeza automática. É um sink puro - a política de
// quando logar fica nos componentes.
type SystemLogger struct {
	config LogConfig

	// Loggers por categoria
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger

	// Arquivos ativos
	errorFile *os.File
	warnFile  *os.File
	infoFile  *os.File
	debugFile *os.File

	// Controle
	mu             sync.RWMutex
	lastRotation   time.Time
	cleanupCancel  context.CancelFunc
	isShuttingDown bool
	shutdownChan   chan struct{}

	// Throttling interno para evitar spam de mensagens idênticas
	throttleMu  sync.Mutex
	lastLog     map[string]time.Time // key -> last log time
	repeatCount map[string]int       // key -> number of repeats since last logged
}

// NewSystemLogger cria um novo logger com configuração padrão
func NewSystemLogger() *SystemLogger {
	config := LogConfig{
		BasePath:           "logs",
		MaxFileSize:        50 * 1024 * 1024, // 50MB
		RetentionDays:      7,                // 7 dias
		RotationInterval:   24 * time.Hour,   // Rotação diária
		EnableDebug:        false,            // Debug desabilitado
		CleanupInterval:    1 * time.Hour,    // Limpeza a cada hora
		ConsoleOutput:      false,            // por padrão não imprimir no stdout
		ThrottleInterval:   30 * time.Second, // agrupar mensagens idênticas por 30s
		ThrottleMaxRepeats: 1000000,          // proteção contra overflow
	}
	return NewSystemLoggerWithConfig(config)
}

// NewSystemLoggerWithConfig cria um logger com configuração customizada
func NewSystemLoggerWithConfig(config LogConfig) *SystemLogger {
	logger := &SystemLogger{
		config:       config,
		lastRotation: time.Now(),
		shutdownChan: make(chan struct{}),
		lastLog:      make(map[string]time.Time),
		repeatCount:  make(map[string]int),
	}

	if err := logger.createLogDirectories(); err != nil {
		log.Fatalf("Erro ao criar diretórios de log: %v", err)
	}

	if err := logger.initializeLogFiles(); err != nil {
		log.Fatalf("Erro ao inicializar arquivos de log: %v", err)
	}

	logger.startCleanupRoutine()

	return logger
}

// createLogDirectories cria a estrutura de diretórios por categoria
func (sl *SystemLogger) createLogDirectories() error {
	directories := []string{
		filepath.Join(sl.config.BasePath, "errors"),
		filepath.Join(sl.config.BasePath, "system"),
		filepath.Join(sl.config.BasePath, "warnings"),
		filepath.Join(sl.config.BasePath, "debug"),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("erro ao criar diretório %s: %v", dir, err)
		}
	}

	return nil
}

// initializeLogFiles inicializa os arquivos de log
func (sl *SystemLogger) initializeLogFiles() error {
	dateStr := time.Now().Format("2006-01-02")

	var err error

	// Arquivo de ERROS
	errorPath := filepath.Join(sl.config.BasePath, "errors", fmt.Sprintf("errors_%s.log", dateStr))
	sl.errorFile, err = os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de erro: %v", err)
	}
	sl.errorLogger = log.New(sl.errorFile, "[ERROR] ", log.LstdFlags|log.Lshortfile)

	// Arquivo de WARNINGS
	warnPath := filepath.Join(sl.config.BasePath, "warnings", fmt.Sprintf("warnings_%s.log", dateStr))
	sl.warnFile, err = os.OpenFile(warnPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de warning: %v", err)
	}
	sl.warnLogger = log.New(sl.warnFile, "[WARN]  ", log.LstdFlags)

	// Arquivo de SISTEMA/INFO
	infoPath := filepath.Join(sl.config.BasePath, "system", fmt.Sprintf("system_%s.log", dateStr))
	sl.infoFile, err = os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de info: %v", err)
	}
	sl.infoLogger = log.New(sl.infoFile, "[INFO]  ", log.LstdFlags)

	// Arquivo de DEBUG (se habilitado)
	if sl.config.EnableDebug {
		debugPath := filepath.Join(sl.config.BasePath, "debug", fmt.Sprintf("debug_%s.log", dateStr))
		sl.debugFile, err = os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("erro ao criar arquivo de debug: %v", err)
		}
		sl.debugLogger = log.New(sl.debugFile, "[DEBUG] ", log.LstdFlags|log.Lshortfile)
	} else {
		sl.debugLogger = log.New(os.Stdout, "[DEBUG] ", log.LstdFlags)
	}

	return nil
}

// startCleanupRoutine inicia a rotina de limpeza automática
func (sl *SystemLogger) startCleanupRoutine() {
	ctx, cancel := context.WithCancel(context.Background())
	sl.cleanupCancel = cancel

	go func() {
		ticker := time.NewTicker(sl.config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sl.shutdownChan:
				return
			case <-ticker.C:
				sl.performMaintenance()
			}
		}
	}()
}

// performMaintenance executa manutenção automática
func (sl *SystemLogger) performMaintenance() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return
	}

	if time.Since(sl.lastRotation) >= sl.config.RotationInterval {
		if err := sl.rotateLogsUnsafe(); err != nil {
			if sl.config.ConsoleOutput {
				fmt.Printf("Erro na rotação de logs: %v\n", err)
			}
		}
	}

	sl.checkFileSizes()

	if err := sl.cleanupOldLogs(); err != nil {
		if sl.config.ConsoleOutput {
			fmt.Printf("Erro na limpeza de logs: %v\n", err)
		}
	}
}

// checkFileSizes verifica se arquivos excederam o tamanho máximo
func (sl *SystemLogger) checkFileSizes() {
	files := []*os.File{sl.errorFile, sl.warnFile, sl.infoFile}
	if sl.debugFile != nil {
		files = append(files, sl.debugFile)
	}

	for _, file := range files {
		if file == nil {
			continue
		}

		if stat, err := file.Stat(); err == nil {
			if stat.Size() >= sl.config.MaxFileSize {
				sl.rotateLogsUnsafe()
				break
			}
		}
	}
}

// rotateLogsUnsafe rotaciona os logs (deve ser chamado com lock)
func (sl *SystemLogger) rotateLogsUnsafe() error {
	sl.closeFilesUnsafe()

	if err := sl.initializeLogFiles(); err != nil {
		return err
	}

	sl.lastRotation = time.Now()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("LOG_ROTATION_COMPLETED: timestamp=%s", sl.lastRotation.Format(time.RFC3339))
	}

	return nil
}

// cleanupOldLogs remove logs mais antigos que a retenção
func (sl *SystemLogger) cleanupOldLogs() error {
	cutoffDate := time.Now().AddDate(0, 0, -sl.config.RetentionDays)

	categories := []string{"errors", "system", "warnings", "debug"}

	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)

		files, err := os.ReadDir(categoryPath)
		if err != nil {
			continue
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}

			filePath := filepath.Join(categoryPath, file.Name())

			info, err := file.Info()
			if err != nil {
				continue
			}

			if info.ModTime().Before(cutoffDate) {
				if sl.isFileInUse(filePath) {
					continue
				}

				if err := os.Remove(filePath); err != nil {
					if sl.errorLogger != nil {
						sl.errorLogger.Printf("CLEANUP_ERROR: file=%s error=%v", filePath, err)
					}
				} else if sl.infoLogger != nil {
					sl.infoLogger.Printf("LOG_CLEANUP: removed=%s age=%v category=%s",
						file.Name(), time.Since(info.ModTime()), category)
				}
			}
		}
	}

	return nil
}

// isFileInUse verifica se um arquivo é um dos arquivos ativos
func (sl *SystemLogger) isFileInUse(filePath string) bool {
	activeFiles := []*os.File{sl.errorFile, sl.warnFile, sl.infoFile, sl.debugFile}

	for _, file := range activeFiles {
		if file != nil && file.Name() == filePath {
			return true
		}
	}

	return false
}

// closeFilesUnsafe fecha arquivos (deve ser chamado com lock)
func (sl *SystemLogger) closeFilesUnsafe() {
	if sl.errorFile != nil {
		sl.errorFile.Close()
		sl.errorFile = nil
	}
	if sl.warnFile != nil {
		sl.warnFile.Close()
		sl.warnFile = nil
	}
	if sl.infoFile != nil {
		sl.infoFile.Close()
		sl.infoFile = nil
	}
	if sl.debugFile != nil {
		sl.debugFile.Close()
		sl.debugFile = nil
	}
}

// ====================== MÉTODOS DE LOGGING - SINK APENAS ======================

func (sl *SystemLogger) LogSystemStarted(mode string) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("SYSTEM_STARTED: mode=%s user=%s", mode, getCurrentUser())
	}
}

func (sl *SystemLogger) LogSystemShutdown(uptime time.Duration) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("SYSTEM_SHUTDOWN: uptime=%v", uptime)
	}
}

// LogSerialDisconnected grava o evento; não decide política.
func (sl *SystemLogger) LogSerialDisconnected(attempts int, lastError error) {
	sl.mu.RLock()
	if sl.errorLogger != nil {
		sl.errorLogger.Printf("SERIAL_DISCONNECTED: attempts=%d, error=%v", attempts, lastError)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("SERIAL_DISCONNECTED: attempts=%d, error=%v\n", attempts, lastError)
	}
}

func (sl *SystemLogger) LogSerialReconnected(downtime time.Duration) {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("SERIAL_RECONNECTED: downtime=%v", downtime)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("🔌 ESP32 reconectado após %v\n", downtime)
	}
}

// LogSafetyVeto grava o veto da camada de obstáculos sobre a sugestão da IA
func (sl *SystemLogger) LogSafetyVeto(aiAction, safeAction models.Action) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.warnLogger != nil {
		sl.warnLogger.Printf("SAFETY_VETO: ai=%s safe=%s", aiAction, safeAction)
	}
}

// LogStuckRest grava a entrada em bloqueio por falhas consecutivas
func (sl *SystemLogger) LogStuckRest(failures int, rest time.Duration) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.warnLogger != nil {
		sl.warnLogger.Printf("STUCK_REST: failures=%d rest=%v", failures, rest)
	}
}

// LogRestFinished grava o fim do período de bloqueio
func (sl *SystemLogger) LogRestFinished() {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("REST_FINISHED: resuming normal operation")
	}
}

// LogGoalReached grava a chegada ao objetivo de navegação
func (sl *SystemLogger) LogGoalReached(distance float64) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("GOAL_REACHED: distance=%.3f", distance)
	}
}

// LogMotorFailure grava a falha de envio de comando aos motores
func (sl *SystemLogger) LogMotorFailure(action models.Action, err error) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.errorLogger != nil {
		sl.errorLogger.Printf("MOTOR_FAILURE: action=%s error=%v", action, err)
	}
}

// LogPredictorFailure grava a falha do serviço de inferência
func (sl *SystemLogger) LogPredictorFailure(err error) {
	sl.LogCriticalError("predictor", "predict", err)
}

// LogTelemetryFailure grava a falha de envio ao coletor remoto
func (sl *SystemLogger) LogTelemetryFailure(err error) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.warnLogger != nil {
		sl.warnLogger.Printf("TELEMETRY_FAILURE: error=%v", err)
	}
}

// LogCriticalError com throttling por mensagem. Política de "quando logar"
// permanece nos componentes; logger apenas grava quando chamado.
func (sl *SystemLogger) LogCriticalError(component, operation string, err error) {
	if err == nil {
		return
	}

	key := fmt.Sprintf("%s|%s|%s", component, operation, err.Error())
	now := time.Now()

	sl.throttleMu.Lock()
	last, exists := sl.lastLog[key]
	if exists && now.Sub(last) < sl.config.ThrottleInterval {
		count := sl.repeatCount[key]
		if count >= sl.config.ThrottleMaxRepeats {
			// overflow protection - reset
			sl.repeatCount[key] = 0
			sl.lastLog[key] = now
			sl.throttleMu.Unlock()
			return
		}
		sl.repeatCount[key] = count + 1
		sl.throttleMu.Unlock()
		return
	}

	// Agregar repetições acumuladas antes de logar de novo
	repeats := sl.repeatCount[key]
	loggedErr := err
	if repeats > 0 {
		loggedErr = fmt.Errorf("%v (repeated %d times since %s)", err, repeats, last.Format(time.RFC3339))
		sl.repeatCount[key] = 0
	}
	sl.lastLog[key] = now
	sl.throttleMu.Unlock()

	sl.mu.RLock()
	if sl.errorLogger != nil {
		sl.errorLogger.Printf("CRITICAL_ERROR: component=%s operation=%s error=%v", component, operation, loggedErr)
	}
	sl.mu.RUnlock()
	if sl.config.ConsoleOutput {
		fmt.Printf("🔥 ERRO CRÍTICO em %s.%s: %v\n", component, operation, loggedErr)
	}
}

func (sl *SystemLogger) LogConfigurationChange(component, change string) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("CONFIG_CHANGE: component=%s change=%s", component, change)
	}
}

// LogDebug adiciona log de debug
func (sl *SystemLogger) LogDebug(component, message string) {
	if !sl.config.EnableDebug {
		return
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.debugLogger != nil {
		sl.debugLogger.Printf("DEBUG: component=%s message=%s", component, message)
	}
}

// GetLogStats retorna tamanhos e contagens dos arquivos de log
func (sl *SystemLogger) GetLogStats() map[string]interface{} {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	stats := make(map[string]interface{})

	if sl.errorFile != nil {
		if stat, err := sl.errorFile.Stat(); err == nil {
			stats["error_file_size"] = stat.Size()
		}
	}

	if sl.infoFile != nil {
		if stat, err := sl.infoFile.Stat(); err == nil {
			stats["info_file_size"] = stat.Size()
		}
	}

	categories := []string{"errors", "system", "warnings", "debug"}
	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)
		if files, err := os.ReadDir(categoryPath); err == nil {
			stats[fmt.Sprintf("%s_file_count", category)] = len(files)
		}
	}

	stats["last_rotation"] = sl.lastRotation

	return stats
}

// ForceRotation força a rotação dos logs
func (sl *SystemLogger) ForceRotation() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return fmt.Errorf("logger is shutting down")
	}

	return sl.rotateLogsUnsafe()
}

// Close fecha o logger com segurança
func (sl *SystemLogger) Close() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.isShuttingDown = true

	if sl.cleanupCancel != nil {
		sl.cleanupCancel()
	}

	// fechar canal (não bloquear se já fechado)
	select {
	case <-sl.shutdownChan:
		// já fechado
	default:
		close(sl.shutdownChan)
	}

	if sl.infoLogger != nil {
		sl.infoLogger.Printf("LOGGER_SHUTDOWN: timestamp=%s", time.Now().Format(time.RFC3339))
	}

	sl.closeFilesUnsafe()
}

func getCurrentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "caren"
}
