package control

import (
	"math"

	"caren/pkg/models"
)

// Limiares padrão do planejador de navegação por objetivos
const (
	DefaultGoalDistance = 0.2 // metros - objetivo alcançado
	DefaultGoalAngle    = 5.0 // graus - banda morta do heading
)

// PlannerConfig reúne os limiares do planejador
type PlannerConfig struct {
	GoalDistance float64 // distância para considerar o objetivo alcançado (m)
	GoalAngle    float64 // erro angular tolerado antes de corrigir (graus)
}

// DefaultPlannerConfig retorna os limiares padrão do planejador
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		GoalDistance: DefaultGoalDistance,
		GoalAngle:    DefaultGoalAngle,
	}
}

// HeadingError calcula o erro angular assinado entre o rumo até o objetivo
// e o heading atual, normalizado para [-180,180). Positivo significa que o
// objetivo está à esquerda.
func HeadingError(pose models.Pose2D, goal models.Goal) float64 {
	bearing := pose.BearingTo(goal)
	diff := math.Mod(bearing-pose.HeadingDeg+180.0, 360.0)
	if diff < 0 {
		diff += 360.0
	}
	return diff - 180.0
}

// PlanTowardGoal refina a ação segura com rastreamento de rumo até o
// objetivo. Retorna reached=true quando a missão terminou - estado
// terminal, o chamador deve parar e encerrar o loop. A evasão de
// obstáculos tem prioridade absoluta: quando a ação segura não é AVANZAR
// ela passa inalterada. Controle bang-bang: gira quando o erro angular
// excede a banda morta, senão avança.
func PlanTowardGoal(snap models.SensorSnapshot, safeAction models.Action, cfg PlannerConfig) (action models.Action, reached bool) {
	if snap.Goal == nil {
		return safeAction, false
	}

	if snap.Pose.DistanceTo(*snap.Goal) < cfg.GoalDistance {
		return models.ActionStop, true
	}

	if safeAction != models.ActionAdvance {
		return safeAction, false
	}

	e := HeadingError(snap.Pose, *snap.Goal)
	if math.Abs(e) > cfg.GoalAngle {
		if e > 0 {
			return models.ActionTurnLeft, false
		}
		return models.ActionTurnRight, false
	}

	return models.ActionAdvance, false
}
