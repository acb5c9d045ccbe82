package sensor

import (
	"sync"
	"time"

	"caren/pkg/models"
)

// GoalProvider entrega o objetivo de navegação atual (nil quando não há)
type GoalProvider interface {
	Current() *models.Goal
}

// Aggregator constrói a visão consistente por ciclo de todos os sensores.
// Mantém a última visão para reutilizar quando a fonte não tem quadro
// novo - leitores recebem uma visão consistente, possivelmente velha,
// nunca rasgada.
type Aggregator struct {
	source Source
	goals  GoalProvider

	mu   sync.Mutex
	last models.SensorSnapshot

	now func() time.Time
}

// NewAggregator cria o agregador sobre a fonte dada. goals pode ser nil
// quando não há objetivo configurado.
func NewAggregator(source Source, goals GoalProvider) *Aggregator {
	return &Aggregator{
		source: source,
		goals:  goals,
		now:    time.Now,
	}
}

// Snapshot constrói a visão do ciclo atual. Campos ausentes do quadro
// novo preservam os valores da visão anterior; o objetivo é sempre
// consultado fresco. Nunca bloqueia.
func (a *Aggregator) Snapshot() models.SensorSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.last

	if frame, ok := a.source.Frame(); ok {
		if frame.Ultrasonics != nil {
			snap.Ultrasonics = *frame.Ultrasonics
		}
		if !frame.Lidar.IsEmpty() {
			snap.Lidar = frame.Lidar
		}
		if frame.Visual != nil {
			snap.Pose = *frame.Visual
		}
		if frame.ImageB64 != "" {
			snap.ImageB64 = frame.ImageB64
		}
	}

	if a.goals != nil {
		snap.Goal = a.goals.Current()
	}
	snap.Timestamp = a.now().UnixNano() / int64(time.Millisecond)

	a.last = snap
	return snap
}
