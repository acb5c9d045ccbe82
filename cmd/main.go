package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"caren/internal/ai"
	"caren/internal/config"
	"caren/internal/control"
	"caren/internal/esp32"
	"caren/internal/goal"
	"caren/internal/logger"
	"caren/internal/sensor"
	"caren/internal/telemetry"
	"caren/pkg/models"
)

var (
	// Logger do sistema
	sysLogger *logger.SystemLogger

	// Context global para controle de goroutines
	globalCtx    context.Context
	globalCancel context.CancelFunc
	mainWg       sync.WaitGroup

	// Canal para shutdown gracioso
	shutdownChan chan struct{}
	shutdownOnce sync.Once
)

// SystemMetrics reúne os contadores do controlador - COM PROTEÇÃO THREAD-SAFE
type SystemMetrics struct {
	mutex            sync.RWMutex
	StartTime        time.Time
	SafetyVetoes     int64
	StuckRests       int64
	GoalsReached     int64
	MotorErrors      int64
	PredictorErrors  int64
	TelemetryErrors  int64
	SerialReconnects int64
	LastUpdate       time.Time
}

func (m *SystemMetrics) IncrementSafetyVetoes() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SafetyVetoes++
}

func (m *SystemMetrics) IncrementStuckRests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.StuckRests++
}

func (m *SystemMetrics) IncrementGoalsReached() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.GoalsReached++
}

func (m *SystemMetrics) IncrementMotorErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.MotorErrors++
}

func (m *SystemMetrics) IncrementPredictorErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.PredictorErrors++
}

func (m *SystemMetrics) IncrementTelemetryErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.TelemetryErrors++
}

func (m *SystemMetrics) IncrementSerialReconnects() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SerialReconnects++
}

func (m *SystemMetrics) GetStats() (int64, int64, int64, int64, int64) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.SafetyVetoes, m.StuckRests, m.GoalsReached, m.MotorErrors, m.PredictorErrors
}

func (m *SystemMetrics) UpdateLastUpdate() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.LastUpdate = time.Now()
}

var metrics *SystemMetrics

// eventRecorder implementa control.EventLogger gravando nos logs do
// sistema e atualizando as métricas ao mesmo tempo
type eventRecorder struct {
	log     *logger.SystemLogger
	metrics *SystemMetrics
}

func (r *eventRecorder) LogSafetyVeto(aiAction, safeAction models.Action) {
	r.log.LogSafetyVeto(aiAction, safeAction)
	r.metrics.IncrementSafetyVetoes()
}

func (r *eventRecorder) LogStuckRest(failures int, rest time.Duration) {
	r.log.LogStuckRest(failures, rest)
	r.metrics.IncrementStuckRests()
	fmt.Printf("⏸️  Robô bloqueado após %d falhas - descansando por %v\n", failures, rest)
}

func (r *eventRecorder) LogRestFinished() {
	r.log.LogRestFinished()
	fmt.Println("▶️  Descanso terminado - retomando operação")
}

func (r *eventRecorder) LogGoalReached(distance float64) {
	r.log.LogGoalReached(distance)
	r.metrics.IncrementGoalsReached()
	fmt.Printf("🎯 Objetivo alcançado (distância %.2fm)\n", distance)
}

func (r *eventRecorder) LogMotorFailure(action models.Action, err error) {
	r.log.LogMotorFailure(action, err)
	r.metrics.IncrementMotorErrors()
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())
	shutdownChan = make(chan struct{})

	// PANIC RECOVERY
	defer func() {
		if r := recover(); r != nil {
			timestamp := time.Now().Format("2006-01-02 15:04:05")

			if sysLogger != nil {
				sysLogger.LogCriticalError("main", "panic", fmt.Errorf("%v", r))
				sysLogger.LogDebug("main", string(debug.Stack()))
			}

			fmt.Printf("\n🔥 CRASH DETECTADO: %s - Erro: %v\n", timestamp, r)
			gracefulShutdown()
			os.Exit(1)
		}
	}()

	setupGracefulShutdown()

	cfg := config.Load()

	initMetrics()
	printSystemHeader()

	// Logger do sistema com rotação e limpeza automática
	sysLogger = logger.NewSystemLoggerWithConfig(logger.LogConfig{
		BasePath:           cfg.LogDir,
		MaxFileSize:        50 * 1024 * 1024,
		RetentionDays:      7,
		RotationInterval:   24 * time.Hour,
		CleanupInterval:    1 * time.Hour,
		ThrottleInterval:   30 * time.Second,
		ThrottleMaxRepeats: 1000000,
	})
	defer sysLogger.Close()

	recorder := &eventRecorder{log: sysLogger, metrics: metrics}

	// Fonte de sensores: ESP32 real ou simulação
	var source sensor.Source
	var link *esp32.Link
	var reconnector *esp32.ReconnectionManager

	if cfg.Simulate {
		fmt.Println("🧪 Modo simulação habilitado - sem hardware")
		source = sensor.NewSimulatedSource(time.Now().UnixNano())
	} else {
		link = esp32.NewLink(cfg.SerialPort, cfg.BaudRate)
		reconnector = esp32.NewReconnectionManager(link)

		if err := link.Connect(); err != nil {
			fmt.Printf("❌ ESP32 não respondeu em %s: %v\n", cfg.SerialPort, err)
			sysLogger.LogSerialDisconnected(0, err)

			if err := reconnector.StartReconnection(); err != nil {
				fmt.Println("❌ Sem ligação com o ESP32 - encerrando")
				sysLogger.LogCriticalError("esp32", "connect", err)
				os.Exit(1)
			}
		}

		fmt.Printf("✅ ESP32 conectado em %s (%d baud)\n", cfg.SerialPort, cfg.BaudRate)
		source = link

		// Leitor serial com reconexão automática
		mainWg.Add(1)
		go func() {
			defer mainWg.Done()
			runSerialMonitor(link, reconnector)
		}()
	}

	// Serviços remotos
	predictor := ai.NewPredictor(cfg.PredictorURL, cfg.ModelPath)
	predictor.SetFailureHandler(func(err error) {
		sysLogger.LogPredictorFailure(err)
		metrics.IncrementPredictorErrors()
	})

	collector := telemetry.NewCollector(cfg.CollectorURL)
	collector.SetFailureHandler(func(err error) {
		sysLogger.LogTelemetryFailure(err)
		metrics.IncrementTelemetryErrors()
	})

	// Sondagem de capacidades no arranque
	report := probeCapabilities(source, predictor, collector)
	mode := control.SelectMode(report)
	displaySystemStatus(report, mode)

	sysLogger.LogSystemStarted(mode.String())
	sysLogger.LogConfigurationChange("main", fmt.Sprintf("mode=%s serial=%s simulate=%v",
		mode, cfg.SerialPort, cfg.Simulate))

	// Provider de objetivo: Redis quando configurado, senão fixo
	goals := buildGoalProvider(cfg)

	// Telemetria: coletor HTTP + painéis WebSocket + NATS
	sink, hub := buildTelemetry(cfg, collector, report.TelemetryOK)

	// Agregador de snapshots e ciclo de controle
	aggregator := sensor.NewAggregator(source, goals)

	loopConfig := control.DefaultLoopConfig()
	loopConfig.PipelineCadence = cfg.PipelineCadence
	loopConfig.SensorCadence = cfg.SensorCadence
	loopConfig.ManualCadence = cfg.ManualCadence
	loopConfig.TelemetryEnabled = report.TelemetryOK
	loopConfig.Resolver = control.ResolverConfig{
		UltrasonicSafety:  cfg.UltrasonicSafetyCm,
		LidarForwardClear: cfg.LidarForwardClearCm,
		LidarSideClear:    cfg.LidarSideClearCm,
		UltraOnlyTurn:     cfg.UltraOnlyTurnCm,
		UltraOnlyMove:     cfg.UltraOnlyMoveCm,
	}
	loopConfig.Planner = control.PlannerConfig{
		GoalDistance: cfg.GoalDistanceM,
		GoalAngle:    cfg.GoalHeadingDeg,
	}

	var motors control.MotorLink
	if link != nil {
		motors = link
	} else {
		motors = &simulatedMotors{}
	}

	loop := control.NewLoop(mode, loopConfig, aggregator, motors, predictor, sink, recorder)

	supervisorConfig := control.DefaultSupervisorConfig()
	supervisorConfig.MaxFailures = cfg.MaxFailures
	supervisorConfig.RestDuration = cfg.RestDuration
	loop.SetSupervisor(control.NewStuckSupervisor(supervisorConfig, recorder))

	// Display periódico de estado
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		statusWorker(loop, hub)
	}()

	fmt.Printf("🚀 Ciclo de controle iniciado - modo %s\n\n", mode)

	if err := loop.Run(globalCtx); err != nil && err != context.Canceled {
		sysLogger.LogCriticalError("loop", "run", err)
		fmt.Printf("❌ Ciclo de controle terminou com erro: %v\n", err)
	}

	globalCancel()

	// Fechar a porta serial desbloqueia o leitor para o shutdown drenar
	if link != nil {
		link.Disconnect()
	}

	gracefulShutdown()
}

// runSerialMonitor mantém a leitura serial viva, reconectando quando a
// porta cai
func runSerialMonitor(link *esp32.Link, reconnector *esp32.ReconnectionManager) {
	for {
		select {
		case <-globalCtx.Done():
			return
		default:
		}

		err := link.Monitor(globalCtx)
		if globalCtx.Err() != nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("porta serial fechada pelo ESP32")
		}

		downStart := time.Now()
		sysLogger.LogSerialDisconnected(reconnector.GetConsecutiveErrors(), err)

		// Erro fora da tabela de falhas de ligação merece registro crítico
		if !isConnectionError(err) {
			sysLogger.LogCriticalError("esp32", "monitor", err)
		}

		if rerr := reconnector.StartReconnection(); rerr != nil {
			sysLogger.LogCriticalError("esp32", "reconnect", rerr)
			return
		}
		sysLogger.LogSerialReconnected(time.Since(downStart))
		metrics.IncrementSerialReconnects()
	}
}

// probeCapabilities verifica cada subsistema antes de escolher o modo.
// Os sensores vêm do primeiro quadro; IA e telemetria respondem por rede.
func probeCapabilities(source sensor.Source, predictor *ai.Predictor, collector *telemetry.Collector) models.CapabilityReport {
	fmt.Println("🔍 Verificando subsistemas...")

	report := models.CapabilityReport{}

	// Aguardar o primeiro quadro de sensores (até 3s)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		frame, ok := source.Frame()
		if ok {
			report.LidarOK = !frame.Lidar.IsEmpty()
			report.UltrasonicOK = frame.Ultrasonics != nil
			report.VisualOK = frame.Visual != nil
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	report.AIModelOK = predictor.CheckAvailable()
	report.TelemetryOK = collector.CheckAlive()

	return report
}

// buildGoalProvider escolhe entre Redis e objetivo fixo
func buildGoalProvider(cfg *config.Config) sensor.GoalProvider {
	var fallback *models.Goal
	if cfg.HasFallbackGoal {
		fallback = &models.Goal{X: cfg.FallbackGoalX, Y: cfg.FallbackGoalY}
	}

	if cfg.RedisAddr == "" {
		return goal.NewStaticProvider(fallback)
	}

	provider, err := goal.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, fallback)
	if err != nil {
		fmt.Printf("⚠️  Redis indisponível (%v) - usando objetivo fixo\n", err)
		sysLogger.LogCriticalError("goal", "redis", err)
		return goal.NewStaticProvider(fallback)
	}

	fmt.Printf("✅ Objetivo de navegação via Redis em %s\n", cfg.RedisAddr)
	return provider
}

// buildTelemetry monta o fanout de telemetria: coletor HTTP, hub
// WebSocket para os painéis e publisher NATS
func buildTelemetry(cfg *config.Config, collector *telemetry.Collector, collectorAlive bool) (telemetry.Sink, *telemetry.Hub) {
	sinks := []telemetry.Sink{}

	if collectorAlive {
		sinks = append(sinks, collector)
	}

	hub := telemetry.NewHub()
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		hub.Run(globalCtx)
	}()
	go hub.ServeHTTP(cfg.WebPort)
	sinks = append(sinks, hub)

	if cfg.NATSURL != "" {
		publisher := telemetry.NewPublisher(cfg.NATSSubject)
		if err := publisher.Connect(cfg.NATSURL); err != nil {
			fmt.Printf("⚠️  NATS indisponível: %v\n", err)
			sysLogger.LogCriticalError("telemetry", "nats", err)
		} else {
			fmt.Printf("✅ Decisões publicadas no NATS (%s)\n", cfg.NATSSubject)
			sinks = append(sinks, publisher)
		}
	}

	return telemetry.NewFanout(sinks...), hub
}

// statusWorker imprime o estado do sistema a cada 30 segundos
func statusWorker(loop *control.Loop, hub *telemetry.Hub) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-globalCtx.Done():
			return
		case <-ticker.C:
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)

			vetoes, rests, goalsReached, motorErrs, _ := metrics.GetStats()
			uptime := time.Since(metrics.StartTime)

			fmt.Printf("📊 [%s] uptime=%s ticks=%d vetos=%d bloqueios=%d objetivos=%d erros_motor=%d painéis=%d mem=%dMB\n",
				time.Now().Format("15:04:05"), formatDuration(uptime), loop.Ticks(),
				vetoes, rests, goalsReached, motorErrs,
				hub.GetConnectedCount(), mem.Alloc/1024/1024)

			metrics.UpdateLastUpdate()
		}
	}
}

// isConnectionError classifica erros de rede/porta recuperáveis
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no route to host",
		"i/o timeout",
		"broken pipe",
		"no such file or directory",
		"device not configured",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// simulatedMotors descarta comandos no modo simulação
type simulatedMotors struct{}

func (m *simulatedMotors) Send(action models.Action) error {
	return nil
}

func displaySystemStatus(report models.CapabilityReport, mode control.Mode) {
	status := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}

	fmt.Println()
	fmt.Println("📊 ESTADO DOS SUBSISTEMAS:")
	fmt.Printf("   Lidar:      %s\n", status(report.LidarOK))
	fmt.Printf("   Ultrassons: %s\n", status(report.UltrasonicOK))
	fmt.Printf("   Visual:     %s\n", status(report.VisualOK))
	fmt.Printf("   Modelo IA:  %s\n", status(report.AIModelOK))
	fmt.Printf("   Telemetria: %s\n", status(report.TelemetryOK))
	fmt.Printf("   Modo:       %s\n", mode)
	fmt.Println()
}

func initMetrics() {
	metrics = &SystemMetrics{
		StartTime:  time.Now(),
		LastUpdate: time.Now(),
	}
}

func printSystemHeader() {
	fmt.Print("\033[2J\033[H")
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              CAREN - CONTROLADOR DE MOVIMENTO                ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Usuário: %-15s                    Data: %s ║\n",
		getCurrentUser(), time.Now().Format("2006-01-02"))
	fmt.Printf("║ Hora: %-18s                  Versão: v1.0.0 ║\n",
		time.Now().Format("15:04:05"))
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		fmt.Println("\n🛑 Encerrando controlador...")

		globalCancel()
		close(shutdownChan)

		// Esperar goroutines com timeout
		done := make(chan struct{})
		go func() {
			mainWg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			fmt.Println("⚠️  Timeout esperando goroutines")
		}

		if metrics != nil {
			vetoes, rests, goalsReached, motorErrs, predErrs := metrics.GetStats()
			uptime := time.Since(metrics.StartTime)

			fmt.Println("\n📊 MÉTRICAS FINAIS:")
			fmt.Printf("   Uptime:            %s\n", formatDuration(uptime))
			fmt.Printf("   Vetos de seg.:     %d\n", vetoes)
			fmt.Printf("   Bloqueios:         %d\n", rests)
			fmt.Printf("   Objetivos:         %d\n", goalsReached)
			fmt.Printf("   Erros de motor:    %d\n", motorErrs)
			fmt.Printf("   Erros de IA:       %d\n", predErrs)

			if sysLogger != nil {
				sysLogger.LogSystemShutdown(uptime)
			}
		}

		fmt.Println("✅ Controlador encerrado")
	})
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-c
		fmt.Printf("\n\n🛑 Sinal: %v - Encerrando...\n", sig)
		if sysLogger != nil {
			sysLogger.LogConfigurationChange("main", fmt.Sprintf("shutdown signal=%v", sig))
		}

		globalCancel()
	}()
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

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
