package control

import (
	"time"

	"caren/pkg/models"
)

// SupervisorState representa o estado do supervisor de atascamento
type SupervisorState int

const (
	StateRunning SupervisorState = iota
	StateResting
)

// String retorna o nome do estado
func (s SupervisorState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateResting:
		return "RESTING"
	default:
		return "UNKNOWN"
	}
}

// Política padrão de recuperação de atascamento
const (
	DefaultMaxFailures  = 5
	DefaultRestDuration = 300 * time.Second
)

// SupervisorConfig configura a política de recuperação
type SupervisorConfig struct {
	MaxFailures  int           // falhas consecutivas antes do descanso
	RestDuration time.Duration // duração do descanso forçado
}

// DefaultSupervisorConfig retorna a política padrão (5 falhas, 300 s)
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MaxFailures:  DefaultMaxFailures,
		RestDuration: DefaultRestDuration,
	}
}

// StuckSupervisor conta ciclos consecutivos sem movimento seguro e força
// um descanso temporizado quando o robô está atascado. O descanso não é
// interrompível por novos dados de sensores; apenas o cancelamento do
// loop (sinal externo do operador) encerra antes - desvio documentado da
// política de referência.
type StuckSupervisor struct {
	config              SupervisorConfig
	state               SupervisorState
	consecutiveFailures int
	restStartedAt       time.Time
	now                 func() time.Time
	log                 EventLogger
}

// NewStuckSupervisor cria um supervisor no estado RUNNING
func NewStuckSupervisor(config SupervisorConfig, log EventLogger) *StuckSupervisor {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultMaxFailures
	}
	if config.RestDuration <= 0 {
		config.RestDuration = DefaultRestDuration
	}
	return &StuckSupervisor{
		config: config,
		state:  StateRunning,
		now:    time.Now,
		log:    log,
	}
}

// Apply processa a ação escolhida deste tick. noSafeOption indica que a
// ação é DETENIDO porque o resolvedor não encontrou opção segura (e não
// porque a IA ou o planejador decidiram parar). Retorna a ação final -
// durante o descanso, sempre DETENIDO.
func (s *StuckSupervisor) Apply(action models.Action, noSafeOption bool) models.Action {
	switch s.state {
	case StateResting:
		if s.now().Sub(s.restStartedAt) >= s.config.RestDuration {
			// Cooldown expirado: volta a RUNNING e avalia o tick normalmente
			s.state = StateRunning
			s.consecutiveFailures = 0
			if s.log != nil {
				s.log.LogRestFinished()
			}
			return s.applyRunning(action, noSafeOption)
		}
		return models.ActionStop

	default:
		return s.applyRunning(action, noSafeOption)
	}
}

// applyRunning avalia um tick no estado RUNNING
func (s *StuckSupervisor) applyRunning(action models.Action, noSafeOption bool) models.Action {
	if noSafeOption {
		s.consecutiveFailures++
	} else {
		s.consecutiveFailures = 0
	}

	if s.consecutiveFailures >= s.config.MaxFailures {
		s.state = StateResting
		s.restStartedAt = s.now()
		if s.log != nil {
			s.log.LogStuckRest(s.consecutiveFailures, s.config.RestDuration)
		}
		return models.ActionStop
	}

	return action
}

// State retorna o estado atual do supervisor
func (s *StuckSupervisor) State() SupervisorState {
	return s.state
}

// ConsecutiveFailures retorna o contador de falhas consecutivas
func (s *StuckSupervisor) ConsecutiveFailures() int {
	return s.consecutiveFailures
}

// RestRemaining retorna quanto falta do descanso (zero fora do RESTING)
func (s *StuckSupervisor) RestRemaining() time.Duration {
	if s.state != StateResting {
		return 0
	}
	remaining := s.config.RestDuration - s.now().Sub(s.restStartedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
