package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caren/pkg/models"
)

// scriptedSource devolve os quadros na ordem dada e depois ok=false
type scriptedSource struct {
	frames []models.SensorFrame
	idx    int
}

func (s *scriptedSource) Frame() (models.SensorFrame, bool) {
	if s.idx >= len(s.frames) {
		return models.SensorFrame{}, false
	}
	frame := s.frames[s.idx]
	s.idx++
	return frame, true
}

// fixedGoals devolve sempre o mesmo objetivo
type fixedGoals struct {
	goal *models.Goal
}

func (g *fixedGoals) Current() *models.Goal {
	return g.goal
}

func TestAggregator_MergesFrameFields(t *testing.T) {
	t.Parallel()

	ultra := models.UltrasonicReadings{Front: 42, Rear: 10, Right: 20, Left: 30}
	pose := models.Pose2D{X: 1, Y: 2, HeadingDeg: 90}

	source := &scriptedSource{frames: []models.SensorFrame{
		{Ultrasonics: &ultra, Visual: &pose},
	}}

	agg := NewAggregator(source, nil)
	snap := agg.Snapshot()

	assert.Equal(t, ultra, snap.Ultrasonics)
	assert.Equal(t, pose, snap.Pose)
	assert.True(t, snap.Lidar.IsEmpty())
}

func TestAggregator_ReusesLastViewWithoutFreshFrame(t *testing.T) {
	t.Parallel()

	ultra := models.UltrasonicReadings{Front: 42}
	source := &scriptedSource{frames: []models.SensorFrame{
		{Ultrasonics: &ultra},
	}}

	agg := NewAggregator(source, nil)
	first := agg.Snapshot()

	// Fonte esgotada: a visão anterior continua válida
	second := agg.Snapshot()
	assert.Equal(t, first.Ultrasonics, second.Ultrasonics)
}

func TestAggregator_PartialFramePreservesOtherFields(t *testing.T) {
	t.Parallel()

	ultraA := models.UltrasonicReadings{Front: 42}
	ultraB := models.UltrasonicReadings{Front: 7}
	pose := models.Pose2D{X: 1, Y: 2}

	source := &scriptedSource{frames: []models.SensorFrame{
		{Ultrasonics: &ultraA, Visual: &pose},
		{Ultrasonics: &ultraB}, // sem dado visual neste quadro
	}}

	agg := NewAggregator(source, nil)
	agg.Snapshot()
	snap := agg.Snapshot()

	assert.Equal(t, ultraB, snap.Ultrasonics)
	assert.Equal(t, pose, snap.Pose, "pose do quadro anterior preservada")
}

func TestAggregator_GoalAlwaysFresh(t *testing.T) {
	t.Parallel()

	goals := &fixedGoals{goal: &models.Goal{X: 3, Y: 4}}
	agg := NewAggregator(&scriptedSource{}, goals)

	snap := agg.Snapshot()
	require.NotNil(t, snap.Goal)
	assert.Equal(t, models.Goal{X: 3, Y: 4}, *snap.Goal)

	// Objetivo removido entre ciclos
	goals.goal = nil
	snap = agg.Snapshot()
	assert.Nil(t, snap.Goal)
}

func TestAggregator_TimestampAdvances(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&scriptedSource{}, nil)

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return current }

	first := agg.Snapshot()
	current = current.Add(200 * time.Millisecond)
	second := agg.Snapshot()

	assert.Equal(t, int64(200), second.Timestamp-first.Timestamp)
}
