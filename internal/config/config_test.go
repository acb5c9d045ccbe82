package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, 100*time.Millisecond, cfg.PipelineCadence)
	assert.Equal(t, 200*time.Millisecond, cfg.SensorCadence)
	assert.Equal(t, time.Second, cfg.ManualCadence)
	assert.Equal(t, 5, cfg.MaxFailures)
	assert.Equal(t, 300*time.Second, cfg.RestDuration)
	assert.Equal(t, 8080, cfg.WebPort)
	assert.False(t, cfg.Simulate)
	assert.False(t, cfg.HasFallbackGoal)
	assert.Empty(t, cfg.RedisAddr)

	assert.Equal(t, 15.0, cfg.UltrasonicSafetyCm)
	assert.Equal(t, 50.0, cfg.LidarForwardClearCm)
	assert.Equal(t, 40.0, cfg.LidarSideClearCm)
	assert.Equal(t, 20.0, cfg.UltraOnlyTurnCm)
	assert.Equal(t, 30.0, cfg.UltraOnlyMoveCm)
	assert.Equal(t, 0.2, cfg.GoalDistanceM)
	assert.Equal(t, 5.0, cfg.GoalHeadingDeg)
}

func TestLoad_SafetyThresholds(t *testing.T) {
	t.Setenv("ULTRA_SAFETY_CM", "25")
	t.Setenv("LIDAR_FORWARD_CLEAR_CM", "80")
	t.Setenv("LIDAR_SIDE_CLEAR_CM", "60")
	t.Setenv("ULTRA_ONLY_TURN_CM", "35")
	t.Setenv("ULTRA_ONLY_MOVE_CM", "45")
	t.Setenv("GOAL_DISTANCE_M", "0.5")
	t.Setenv("GOAL_HEADING_DEG", "10")

	cfg := Load()

	assert.Equal(t, 25.0, cfg.UltrasonicSafetyCm)
	assert.Equal(t, 80.0, cfg.LidarForwardClearCm)
	assert.Equal(t, 60.0, cfg.LidarSideClearCm)
	assert.Equal(t, 35.0, cfg.UltraOnlyTurnCm)
	assert.Equal(t, 45.0, cfg.UltraOnlyMoveCm)
	assert.Equal(t, 0.5, cfg.GoalDistanceM)
	assert.Equal(t, 10.0, cfg.GoalHeadingDeg)
}

func TestLoad_InvalidThresholdKeepsDefault(t *testing.T) {
	t.Setenv("ULTRA_SAFETY_CM", "perto")

	cfg := Load()
	assert.Equal(t, 15.0, cfg.UltrasonicSafetyCm)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERIAL_PORT", "/dev/ttyACM1")
	t.Setenv("SERIAL_BAUD", "9600")
	t.Setenv("STUCK_MAX_FAILURES", "3")
	t.Setenv("STUCK_REST_SECONDS", "60")
	t.Setenv("SIMULATE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()

	assert.Equal(t, "/dev/ttyACM1", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, 3, cfg.MaxFailures)
	assert.Equal(t, time.Minute, cfg.RestDuration)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_FallbackGoal(t *testing.T) {
	t.Run("par completo", func(t *testing.T) {
		t.Setenv("GOAL_X", "2.5")
		t.Setenv("GOAL_Y", "-1.0")

		cfg := Load()
		assert.True(t, cfg.HasFallbackGoal)
		assert.Equal(t, 2.5, cfg.FallbackGoalX)
		assert.Equal(t, -1.0, cfg.FallbackGoalY)
	})

	t.Run("só uma coordenada é ignorada", func(t *testing.T) {
		t.Setenv("GOAL_X", "2.5")

		cfg := Load()
		assert.False(t, cfg.HasFallbackGoal)
	})

	t.Run("valor inválido é ignorado", func(t *testing.T) {
		t.Setenv("GOAL_X", "abc")
		t.Setenv("GOAL_Y", "1.0")

		cfg := Load()
		assert.False(t, cfg.HasFallbackGoal)
	})
}
