package sensor

import (
	"math/rand"
	"sync"

	"caren/pkg/models"
)

// Source entrega o quadro bruto mais recente dos sensores. ok=false
// significa que não há quadro novo desde a última chamada - o agregador
// reutiliza a visão anterior em vez de bloquear o tick.
type Source interface {
	Frame() (frame models.SensorFrame, ok bool)
}

// Faixas da simulação (mesmas do hardware real: cm para distâncias,
// metros para a pose)
const (
	simUltraMin = 5.0
	simUltraMax = 400.0
	simLidarMin = 10.0
	simLidarMax = 800.0
	simWorldMax = 20.0
)

// SimulatedSource gera quadros sintéticos quando não há hardware.
// Estratégia explícita de simulação em vez de fallback silencioso nos
// getters: a seleção live/simulado acontece uma vez no arranque.
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSource cria uma fonte simulada com a semente dada
func NewSimulatedSource(seed int64) *SimulatedSource {
	return &SimulatedSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Frame gera um quadro sintético completo. Sempre ok=true: a simulação
// nunca fica sem dados.
func (s *SimulatedSource) Frame() (models.SensorFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uniform := func(min, max float64) float64 {
		return min + s.rng.Float64()*(max-min)
	}

	scan := make(models.LidarScan, 360)
	for angle := 0; angle < 360; angle++ {
		scan[angle] = models.LidarPoint{
			AngleDeg: angle,
			Distance: uniform(simLidarMin, simLidarMax),
		}
	}

	frame := models.SensorFrame{
		Ultrasonics: &models.UltrasonicReadings{
			Front: uniform(simUltraMin, simUltraMax),
			Rear:  uniform(simUltraMin, simUltraMax),
			Right: uniform(simUltraMin, simUltraMax),
			Left:  uniform(simUltraMin, simUltraMax),
		},
		Lidar: scan,
		Visual: &models.Pose2D{
			X:          uniform(0, simWorldMax),
			Y:          uniform(0, simWorldMax),
			HeadingDeg: uniform(0, 359.9),
		},
	}

	return frame, true
}
