package control

import (
	"time"

	"caren/pkg/models"
)

// EventLogger recebe os eventos de decisão relevantes para diagnóstico.
// Implementado pelo logger do sistema; nil desativa o registro.
type EventLogger interface {
	LogSafetyVeto(aiAction, safeAction models.Action)
	LogStuckRest(failures int, rest time.Duration)
	LogRestFinished()
	LogGoalReached(distance float64)
	LogMotorFailure(action models.Action, err error)
}

// Arbitrator combina a sugestão da IA com a ação segura dos sensores
type Arbitrator struct {
	log EventLogger
}

// NewArbitrator cria um árbitro com o logger de eventos dado
func NewArbitrator(log EventLogger) *Arbitrator {
	return &Arbitrator{log: log}
}

// Arbitrate decide entre a sugestão da IA e a ação segura. A segurança só
// veta quando a IA quer AVANZAR e os sensores discordam; qualquer outra
// sugestão passa direto. O veto é registrado para diagnóstico.
func (a *Arbitrator) Arbitrate(aiSuggestion, safeAction models.Action) models.Action {
	if aiSuggestion == models.ActionAdvance && safeAction != models.ActionAdvance {
		if a.log != nil {
			a.log.LogSafetyVeto(aiSuggestion, safeAction)
		}
		return safeAction
	}
	return aiSuggestion
}
