package control

import (
	"caren/pkg/models"
)

// Setores do lidar usados pela resolução de obstáculos (graus)
const (
	SectorFrontStart = -45
	SectorFrontEnd   = 45
	SectorRightStart = -135
	SectorRightEnd   = -45
	SectorLeftStart  = 45
	SectorLeftEnd    = 135
)

// Limiares de segurança padrão (cm). Os modos degradados usam valores
// próprios, mais conservadores - o ultrassom tem campo de visão mais
// estreito e ruidoso que o lidar. Mantidos como constantes separadas
// de propósito: não há evidência de intenção de unificá-los.
const (
	DefaultUltrasonicSafety  = 15.0
	DefaultLidarForwardClear = 50.0
	DefaultLidarSideClear    = 40.0
	DefaultUltraOnlyTurn     = 20.0
	DefaultUltraOnlyMove     = 30.0
)

// ResolverConfig reúne os limiares de segurança da resolução local (cm)
type ResolverConfig struct {
	UltrasonicSafety  float64 // margem mínima de qualquer ultrassom
	LidarForwardClear float64 // setor frontal livre para avançar
	LidarSideClear    float64 // setores laterais livres para girar
	UltraOnlyTurn     float64 // modo só-ultrassom: limiar de giro
	UltraOnlyMove     float64 // modo só-ultrassom: limiar de avanço/recuo
}

// DefaultResolverConfig retorna os limiares de segurança padrão
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		UltrasonicSafety:  DefaultUltrasonicSafety,
		LidarForwardClear: DefaultLidarForwardClear,
		LidarSideClear:    DefaultLidarSideClear,
		UltraOnlyTurn:     DefaultUltraOnlyTurn,
		UltraOnlyMove:     DefaultUltraOnlyMove,
	}
}

// ResolveLocalObstacle decide uma ação segura usando lidar + ultrassons.
// A cascata é avaliada em ordem estrita de prioridade: avançar, girar para
// o lado mais aberto, girar à esquerda, recuar, parar. Todas as comparações
// são estritamente maiores que o limiar - distância exatamente no limiar
// conta como obstáculo.
func ResolveLocalObstacle(snap models.SensorSnapshot, cfg ResolverConfig) models.Action {
	front := MinDistanceInSector(snap.Lidar, SectorFrontStart, SectorFrontEnd)
	right := MinDistanceInSector(snap.Lidar, SectorRightStart, SectorRightEnd)
	left := MinDistanceInSector(snap.Lidar, SectorLeftStart, SectorLeftEnd)

	ultra := snap.Ultrasonics

	switch {
	case front > cfg.LidarForwardClear && ultra.Front > cfg.UltrasonicSafety:
		return models.ActionAdvance
	case right > left && right > cfg.LidarSideClear && ultra.Right > cfg.UltrasonicSafety:
		return models.ActionTurnRight
	case left > cfg.LidarSideClear && ultra.Left > cfg.UltrasonicSafety:
		return models.ActionTurnLeft
	case ultra.Rear > cfg.UltrasonicSafety:
		return models.ActionRetreat
	default:
		return models.ActionStop
	}
}

// ResolveUltrasonicOnly aplica a mesma cascata restrita aos ultrassons.
// Limiar de avanço/recuo mais alto (30 cm) e de giro 20 cm.
func ResolveUltrasonicOnly(ultra models.UltrasonicReadings, cfg ResolverConfig) models.Action {
	switch {
	case ultra.Front > cfg.UltraOnlyMove:
		return models.ActionAdvance
	case ultra.Right > ultra.Left && ultra.Right > cfg.UltraOnlyTurn:
		return models.ActionTurnRight
	case ultra.Left > cfg.UltraOnlyTurn:
		return models.ActionTurnLeft
	case ultra.Rear > cfg.UltraOnlyMove:
		return models.ActionRetreat
	default:
		return models.ActionStop
	}
}

// ResolveLidarOnly aplica a cascata restrita ao lidar. Sem ultrassom
// traseiro o recuo vira o último recurso antes de parar - o lidar não
// cobre a traseira imediata do chassis, então o recuo é às cegas e por
// isso só acontece quando nenhum giro é possível.
func ResolveLidarOnly(scan models.LidarScan, cfg ResolverConfig) models.Action {
	front := MinDistanceInSector(scan, SectorFrontStart, SectorFrontEnd)
	right := MinDistanceInSector(scan, SectorRightStart, SectorRightEnd)
	left := MinDistanceInSector(scan, SectorLeftStart, SectorLeftEnd)

	switch {
	case front > cfg.LidarForwardClear:
		return models.ActionAdvance
	case right > left && right > cfg.LidarSideClear:
		return models.ActionTurnRight
	case left > cfg.LidarSideClear:
		return models.ActionTurnLeft
	default:
		return models.ActionRetreat
	}
}
