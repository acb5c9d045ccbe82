package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSource_FrameComplete(t *testing.T) {
	t.Parallel()

	source := NewSimulatedSource(1)

	frame, ok := source.Frame()
	require.True(t, ok, "a simulação nunca fica sem dados")

	require.NotNil(t, frame.Ultrasonics)
	require.NotNil(t, frame.Visual)
	assert.True(t, frame.Lidar.IsComplete())
}

func TestSimulatedSource_RangesMatchHardware(t *testing.T) {
	t.Parallel()

	source := NewSimulatedSource(7)

	for i := 0; i < 20; i++ {
		frame, _ := source.Frame()

		for _, d := range []float64{
			frame.Ultrasonics.Front,
			frame.Ultrasonics.Rear,
			frame.Ultrasonics.Right,
			frame.Ultrasonics.Left,
		} {
			assert.GreaterOrEqual(t, d, simUltraMin)
			assert.Less(t, d, simUltraMax)
		}

		for _, p := range frame.Lidar {
			assert.GreaterOrEqual(t, p.Distance, simLidarMin)
			assert.Less(t, p.Distance, simLidarMax)
		}

		assert.GreaterOrEqual(t, frame.Visual.X, 0.0)
		assert.Less(t, frame.Visual.X, simWorldMax)
		assert.GreaterOrEqual(t, frame.Visual.HeadingDeg, 0.0)
		assert.Less(t, frame.Visual.HeadingDeg, 360.0)
	}
}

func TestSimulatedSource_Deterministic(t *testing.T) {
	t.Parallel()

	a := NewSimulatedSource(42)
	b := NewSimulatedSource(42)

	frameA, _ := a.Frame()
	frameB, _ := b.Frame()

	assert.Equal(t, *frameA.Ultrasonics, *frameB.Ultrasonics)
	assert.Equal(t, *frameA.Visual, *frameB.Visual)
}
