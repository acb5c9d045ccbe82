package control

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"caren/pkg/models"
)

func TestSelectMode_Ladder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		report models.CapabilityReport
		want   Mode
	}{
		{
			"tudo disponível",
			models.CapabilityReport{LidarOK: true, UltrasonicOK: true, VisualOK: true, AIModelOK: true, TelemetryOK: true},
			ModeAICombined,
		},
		{
			"IA sem sensores completos",
			models.CapabilityReport{AIModelOK: true, LidarOK: true},
			ModeAIPure,
		},
		{
			"só IA",
			models.CapabilityReport{AIModelOK: true},
			ModeAIPure,
		},
		{
			"sensores e visual sem IA",
			models.CapabilityReport{LidarOK: true, UltrasonicOK: true, VisualOK: true},
			ModeGoalNavigation,
		},
		{
			"lidar e ultrassom sem visual",
			models.CapabilityReport{LidarOK: true, UltrasonicOK: true},
			ModeCombinedSensors,
		},
		{
			"só lidar",
			models.CapabilityReport{LidarOK: true},
			ModeLidarOnly,
		},
		{
			"só ultrassom",
			models.CapabilityReport{UltrasonicOK: true},
			ModeUltrasonicOnly,
		},
		{
			"nada disponível",
			models.CapabilityReport{},
			ModeManual,
		},
		{
			"só visual cai no manual",
			models.CapabilityReport{VisualOK: true},
			ModeManual,
		},
		{
			"só telemetria cai no manual",
			models.CapabilityReport{TelemetryOK: true},
			ModeManual,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SelectMode(tc.report))
		})
	}
}

// TestSelectMode_Total percorre as 32 combinações de capacidades e
// garante que cada uma mapeia para algum modo conhecido
func TestSelectMode_Total(t *testing.T) {
	t.Parallel()

	for mask := 0; mask < 32; mask++ {
		report := models.CapabilityReport{
			LidarOK:      mask&1 != 0,
			UltrasonicOK: mask&2 != 0,
			VisualOK:     mask&4 != 0,
			AIModelOK:    mask&8 != 0,
			TelemetryOK:  mask&16 != 0,
		}

		mode := SelectMode(report)
		assert.NotEqual(t, "DESCONHECIDO", mode.String(), "mask %05b", mask)

		// A telemetria nunca muda o modo
		report.TelemetryOK = !report.TelemetryOK
		assert.Equal(t, mode, SelectMode(report), "mask %05b", mask)
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MOVIMENTO_COMBINADO_IA_SENSORES", ModeAICombined.String())
	assert.Equal(t, "MOVIMENTO_CONTROLADO", ModeManual.String())
	assert.Equal(t, "DESCONHECIDO", Mode(99).String())
}
