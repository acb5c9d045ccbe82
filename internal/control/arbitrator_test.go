package control

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"caren/pkg/models"
)

// spyLogger registra os eventos recebidos para verificação nos testes
type spyLogger struct {
	mu            sync.Mutex
	vetoes        int
	stuckRests    int
	restsFinished int
	goalsReached  int
	motorFailures int
}

func (s *spyLogger) LogSafetyVeto(aiAction, safeAction models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vetoes++
}

func (s *spyLogger) LogStuckRest(failures int, rest time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuckRests++
}

func (s *spyLogger) LogRestFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restsFinished++
}

func (s *spyLogger) LogGoalReached(distance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goalsReached++
}

func (s *spyLogger) LogMotorFailure(action models.Action, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motorFailures++
}

func TestArbitrate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ai   models.Action
		safe models.Action
		want models.Action
	}{
		{"avanço vetado por parada", models.ActionAdvance, models.ActionStop, models.ActionStop},
		{"avanço vetado por giro", models.ActionAdvance, models.ActionTurnRight, models.ActionTurnRight},
		{"avanço confirmado passa", models.ActionAdvance, models.ActionAdvance, models.ActionAdvance},
		{"giro da IA passa direto", models.ActionTurnLeft, models.ActionStop, models.ActionTurnLeft},
		{"recuo da IA passa direto", models.ActionRetreat, models.ActionAdvance, models.ActionRetreat},
		{"parada da IA passa direto", models.ActionStop, models.ActionAdvance, models.ActionStop},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := NewArbitrator(nil)
			assert.Equal(t, tc.want, a.Arbitrate(tc.ai, tc.safe))
		})
	}
}

func TestArbitrate_LogsVeto(t *testing.T) {
	t.Parallel()

	spy := &spyLogger{}
	a := NewArbitrator(spy)

	a.Arbitrate(models.ActionAdvance, models.ActionStop)
	assert.Equal(t, 1, spy.vetoes)

	// Sem veto não há registro
	a.Arbitrate(models.ActionTurnLeft, models.ActionStop)
	a.Arbitrate(models.ActionAdvance, models.ActionAdvance)
	assert.Equal(t, 1, spy.vetoes)
}
