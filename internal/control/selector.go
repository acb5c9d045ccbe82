package control

import (
	"caren/pkg/models"
)

// Mode representa o modo de operação escolhido no arranque
type Mode int

const (
	ModeAICombined Mode = iota // IA + sensores com veto de segurança
	ModeAIPure                 // IA pura, sem verificação de sensores
	ModeGoalNavigation         // navegação por objetivos (regras)
	ModeCombinedSensors        // lidar + ultrassons
	ModeLidarOnly              // autônomo só com lidar
	ModeUltrasonicOnly         // autônomo só com ultrassons
	ModeManual                 // controle remoto/manual
)

// String retorna o nome do modo
func (m Mode) String() string {
	switch m {
	case ModeAICombined:
		return "MOVIMENTO_COMBINADO_IA_SENSORES"
	case ModeAIPure:
		return "MOVIMENTO_COM_IA"
	case ModeGoalNavigation:
		return "NAVEGACAO_POR_OBJETIVOS"
	case ModeCombinedSensors:
		return "AUTONOMO_COMBINADO"
	case ModeLidarOnly:
		return "AUTONOMO_LIDAR"
	case ModeUltrasonicOnly:
		return "AUTONOMO_ULTRASSOM"
	case ModeManual:
		return "MOVIMENTO_CONTROLADO"
	default:
		return "DESCONHECIDO"
	}
}

// modeRule é uma entrada da tabela de decisão: predicado sobre o relatório
// de capacidades e o modo correspondente
type modeRule struct {
	match func(models.CapabilityReport) bool
	mode  Mode
}

// modeTable é a escada de decisão do arranque em ordem de prioridade.
// O primeiro predicado verdadeiro ganha; o fallback é o modo manual.
var modeTable = []modeRule{
	{func(c models.CapabilityReport) bool {
		return c.AIModelOK && c.VisualOK && c.LidarOK && c.UltrasonicOK
	}, ModeAICombined},
	{func(c models.CapabilityReport) bool {
		return c.AIModelOK
	}, ModeAIPure},
	{func(c models.CapabilityReport) bool {
		return c.VisualOK && c.LidarOK && c.UltrasonicOK
	}, ModeGoalNavigation},
	{func(c models.CapabilityReport) bool {
		return c.LidarOK && c.UltrasonicOK
	}, ModeCombinedSensors},
	{func(c models.CapabilityReport) bool {
		return c.LidarOK
	}, ModeLidarOnly},
	{func(c models.CapabilityReport) bool {
		return c.UltrasonicOK
	}, ModeUltrasonicOnly},
}

// SelectMode escolhe o modo de operação a partir do relatório de
// capacidades. Função total sobre as 32 combinações: toda combinação
// mapeia para exatamente um modo, caindo no modo manual (o mais
// conservador) quando nenhum predicado casa.
func SelectMode(report models.CapabilityReport) Mode {
	for _, rule := range modeTable {
		if rule.match(report) {
			return rule.mode
		}
	}
	return ModeManual
}
