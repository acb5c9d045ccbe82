package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Action representa um comando discreto de alto nível para os motores.
// Os valores seguem o protocolo original do ESP32 (strings em espanhol).
type Action string

const (
	ActionAdvance   Action = "AVANZAR"
	ActionTurnRight Action = "GIRAR_DERECHA"
	ActionTurnLeft  Action = "GIRAR_IZQUIERDA"
	ActionRetreat   Action = "RETROCEDER"
	ActionStop      Action = "DETENIDO"
)

// AllActions lista as cinco ações válidas na ordem do protocolo
var AllActions = []Action{
	ActionAdvance,
	ActionTurnRight,
	ActionTurnLeft,
	ActionRetreat,
	ActionStop,
}

// IsValid verifica se a ação pertence ao vocabulário do protocolo
func (a Action) IsValid() bool {
	switch a {
	case ActionAdvance, ActionTurnRight, ActionTurnLeft, ActionRetreat, ActionStop:
		return true
	}
	return false
}

// ParseAction converte uma string do protocolo em Action
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return ActionStop, fmt.Errorf("ação desconhecida: %q", s)
	}
	return a, nil
}

// Pose2D representa a posição e orientação do robô no plano.
// Heading em graus, normalizado para [0,360).
type Pose2D struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	HeadingDeg float64 `json:"orientacion"`
}

// NormalizeHeading retorna o heading normalizado para [0,360)
func (p Pose2D) NormalizeHeading() float64 {
	h := math.Mod(p.HeadingDeg, 360.0)
	if h < 0 {
		h += 360.0
	}
	return h
}

// DistanceTo calcula a distância euclidiana até o objetivo (metros)
func (p Pose2D) DistanceTo(g Goal) float64 {
	return math.Hypot(g.X-p.X, g.Y-p.Y)
}

// BearingTo calcula o ângulo em graus da pose até o objetivo
func (p Pose2D) BearingTo(g Goal) float64 {
	return math.Atan2(g.Y-p.Y, g.X-p.X) * 180.0 / math.Pi
}

// NoEchoDistance - sentinela usada pelos ultrassons quando não há eco (cm)
const NoEchoDistance = 9999.0

// UltrasonicReadings representa as distâncias dos quatro ultrassons (cm)
type UltrasonicReadings struct {
	Front float64 `json:"frontal"`
	Rear  float64 `json:"trasero"`
	Right float64 `json:"derecho"`
	Left  float64 `json:"izquierdo"`
}

// LidarPoint representa uma leitura do lidar: ângulo inteiro e distância (cm).
// No protocolo serial cada ponto viaja como par [angulo, distancia].
type LidarPoint struct {
	AngleDeg int
	Distance float64
}

// MarshalJSON serializa o ponto como par [angulo, distancia]
func (lp LidarPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(lp.AngleDeg), lp.Distance})
}

// UnmarshalJSON aceita o par [angulo, distancia] do ESP32
func (lp *LidarPoint) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("ponto lidar inválido: %v", err)
	}
	lp.AngleDeg = int(pair[0])
	lp.Distance = pair[1]
	return nil
}

// LidarScan representa uma varredura completa: 360 pontos, índice == ângulo.
// Vazio quando não há hardware lidar.
type LidarScan []LidarPoint

// IsEmpty verifica se a varredura está ausente
func (s LidarScan) IsEmpty() bool {
	return len(s) == 0
}

// IsComplete verifica o invariante de 360 pontos com índice == ângulo
func (s LidarScan) IsComplete() bool {
	if len(s) != 360 {
		return false
	}
	for i, p := range s {
		if p.AngleDeg != i {
			return false
		}
	}
	return true
}

// Goal representa o objetivo de navegação (metros)
type Goal struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SensorSnapshot é a visão consistente de todos os sensores em um ciclo.
// Construído a cada tick a partir da caché do hardware; nunca mutado depois.
type SensorSnapshot struct {
	ImageB64    string             `json:"imagen_camara,omitempty"`
	Pose        Pose2D             `json:"posicion_visual"`
	Lidar       LidarScan          `json:"datos_lidar,omitempty"`
	Ultrasonics UltrasonicReadings `json:"distancias_ultra"`
	Goal        *Goal              `json:"objetivo,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

// SensorFrame é o formato bruto de uma linha JSON vinda do ESP32
type SensorFrame struct {
	Ultrasonics *UltrasonicReadings `json:"ultrasonidos,omitempty"`
	Lidar       LidarScan           `json:"lidar,omitempty"`
	Visual      *Pose2D             `json:"visual,omitempty"`
	ImageB64    string              `json:"imagen_b64,omitempty"`
}

// CapabilityReport resume as verificações de subsistemas feitas no arranque
type CapabilityReport struct {
	LidarOK      bool `json:"lidarOk"`
	UltrasonicOK bool `json:"ultrasonicOk"`
	VisualOK     bool `json:"visualOk"`
	AIModelOK    bool `json:"aiModelOk"`
	TelemetryOK  bool `json:"telemetryOk"`
}

// DecisionRecord representa uma decisão do ciclo de controle para telemetria
type DecisionRecord struct {
	Mode        string         `json:"mode"`
	Action      Action         `json:"action"`
	SafeAction  Action         `json:"safeAction,omitempty"`
	AISuggested Action         `json:"aiSuggested,omitempty"`
	VetoApplied bool           `json:"vetoApplied"`
	Snapshot    SensorSnapshot `json:"snapshot"`
	Timestamp   int64          `json:"timestamp"`
}
