package control

import (
	"context"
	"sync/atomic"
	"time"

	"caren/pkg/models"
)

// Cadências de referência do loop de controle
const (
	DefaultPipelineCadence = 100 * time.Millisecond // modos IA/objetivos
	DefaultSensorCadence   = 200 * time.Millisecond // modos só-sensores
	DefaultManualCadence   = 1 * time.Second        // modo manual em espera
)

// MotorLink envia comandos discretos para os motores
type MotorLink interface {
	Send(action models.Action) error
}

// SnapshotProvider entrega a visão consistente dos sensores do ciclo.
// Nunca bloqueia: sem dado novo retorna a última visão (ou simulada).
type SnapshotProvider interface {
	Snapshot() models.SensorSnapshot
}

// Predictor é o preditor de IA externo: caixa preta que devolve uma das
// cinco ações (DETENIDO em caso de falha)
type Predictor interface {
	Predict(snap models.SensorSnapshot) models.Action
}

// TelemetrySink recebe o registro de decisão de cada tick. Entrega
// fire-and-forget: falhas nunca atrasam nem abortam o tick.
type TelemetrySink interface {
	Emit(record models.DecisionRecord)
}

// LoopConfig configura o driver do loop de controle
type LoopConfig struct {
	PipelineCadence  time.Duration
	SensorCadence    time.Duration
	ManualCadence    time.Duration
	Resolver         ResolverConfig
	Planner          PlannerConfig
	TelemetryEnabled bool
}

// DefaultLoopConfig retorna a configuração padrão do loop
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		PipelineCadence:  DefaultPipelineCadence,
		SensorCadence:    DefaultSensorCadence,
		ManualCadence:    DefaultManualCadence,
		Resolver:         DefaultResolverConfig(),
		Planner:          DefaultPlannerConfig(),
		TelemetryEnabled: false,
	}
}

// Loop amarra o pipeline de decisão em uma cadência fixa: snapshot →
// resolvedor (e opcionalmente planejador e/ou árbitro) → supervisor →
// motores, com telemetria opcional. Single-threaded e cooperativo; nenhum
// componente do pipeline faz I/O bloqueante.
type Loop struct {
	mode       Mode
	config     LoopConfig
	sensors    SnapshotProvider
	motors     MotorLink
	predictor  Predictor
	telemetry  TelemetrySink
	arbitrator *Arbitrator
	supervisor *StuckSupervisor
	log        EventLogger

	ticks atomic.Int64
}

// NewLoop cria o driver para o modo dado. predictor e telemetry podem ser
// nil quando o modo não os usa.
func NewLoop(mode Mode, config LoopConfig, sensors SnapshotProvider, motors MotorLink, predictor Predictor, telemetry TelemetrySink, log EventLogger) *Loop {
	return &Loop{
		mode:       mode,
		config:     config,
		sensors:    sensors,
		motors:     motors,
		predictor:  predictor,
		telemetry:  telemetry,
		arbitrator: NewArbitrator(log),
		supervisor: NewStuckSupervisor(DefaultSupervisorConfig(), log),
		log:        log,
	}
}

// SetSupervisor substitui o supervisor padrão (política customizada)
func (l *Loop) SetSupervisor(s *StuckSupervisor) {
	l.supervisor = s
}

// Ticks retorna o número de ciclos executados. Seguro para leitura
// concorrente enquanto Run está ativo.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}

// cadence retorna a cadência do modo atual
func (l *Loop) cadence() time.Duration {
	switch l.mode {
	case ModeManual:
		return l.config.ManualCadence
	case ModeCombinedSensors, ModeLidarOnly, ModeUltrasonicOnly:
		return l.config.SensorCadence
	default:
		return l.config.PipelineCadence
	}
}

// Run executa o loop até o cancelamento do contexto ou até o objetivo ser
// alcançado. Em qualquer caminho de término o último comando enviado aos
// motores é DETENIDO.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cadence())
	defer ticker.Stop()
	defer l.sendStop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			l.ticks.Add(1)

			if l.mode == ModeManual {
				// Em espera de comandos externos; nenhum comando autônomo
				continue
			}

			snap := l.sensors.Snapshot()
			record, terminal := l.decide(snap)

			if terminal {
				// Objetivo alcançado: sucesso terminal, não é erro
				if l.log != nil && snap.Goal != nil {
					l.log.LogGoalReached(snap.Pose.DistanceTo(*snap.Goal))
				}
				l.emit(record)
				return nil
			}

			if err := l.motors.Send(record.Action); err != nil && l.log != nil {
				l.log.LogMotorFailure(record.Action, err)
			}
			l.emit(record)
		}
	}
}

// decide executa o pipeline do modo atual sobre o snapshot. terminal=true
// indica a condição de fim de missão do planejador.
func (l *Loop) decide(snap models.SensorSnapshot) (record models.DecisionRecord, terminal bool) {
	record = models.DecisionRecord{
		Mode:      l.mode.String(),
		Snapshot:  snap,
		Timestamp: snap.Timestamp,
	}

	var chosen models.Action
	noSafeOption := false

	switch l.mode {
	case ModeUltrasonicOnly:
		chosen = ResolveUltrasonicOnly(snap.Ultrasonics, l.config.Resolver)
		record.SafeAction = chosen
		noSafeOption = chosen == models.ActionStop

	case ModeLidarOnly:
		chosen = ResolveLidarOnly(snap.Lidar, l.config.Resolver)
		record.SafeAction = chosen
		noSafeOption = chosen == models.ActionStop

	case ModeCombinedSensors:
		chosen = ResolveLocalObstacle(snap, l.config.Resolver)
		record.SafeAction = chosen
		noSafeOption = chosen == models.ActionStop

	case ModeGoalNavigation:
		safe := ResolveLocalObstacle(snap, l.config.Resolver)
		record.SafeAction = safe

		var reached bool
		chosen, reached = PlanTowardGoal(snap, safe, l.config.Planner)
		if reached {
			record.Action = models.ActionStop
			return record, true
		}
		noSafeOption = safe == models.ActionStop

	case ModeAIPure:
		chosen = l.predict(snap)
		record.AISuggested = chosen

	case ModeAICombined:
		ai := l.predict(snap)
		safe := ResolveLocalObstacle(snap, l.config.Resolver)
		record.AISuggested = ai
		record.SafeAction = safe

		chosen = l.arbitrator.Arbitrate(ai, safe)
		record.VetoApplied = chosen != ai
		noSafeOption = chosen == models.ActionStop && safe == models.ActionStop
	}

	record.Action = l.supervisor.Apply(chosen, noSafeOption)
	return record, false
}

// predict consulta o preditor externo; sem preditor a sugestão é DETENIDO
func (l *Loop) predict(snap models.SensorSnapshot) models.Action {
	if l.predictor == nil {
		return models.ActionStop
	}
	return l.predictor.Predict(snap)
}

// emit envia o registro de decisão para a telemetria quando habilitada
func (l *Loop) emit(record models.DecisionRecord) {
	if !l.config.TelemetryEnabled || l.telemetry == nil {
		return
	}
	l.telemetry.Emit(record)
}

// sendStop força DETENIDO nos motores - chamado em todo caminho de término
func (l *Loop) sendStop() {
	if err := l.motors.Send(models.ActionStop); err != nil && l.log != nil {
		l.log.LogMotorFailure(models.ActionStop, err)
	}
}
