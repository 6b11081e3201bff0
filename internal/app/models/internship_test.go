package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeCompletionTerminalStates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 100.0, ComputeCompletion(StateCompleted, 0, 0, nil, nil, now))
	assert.Equal(t, 100.0, ComputeCompletion(StateEvaluated, 1, 10, nil, nil, now))
	assert.Equal(t, 0.0, ComputeCompletion(StateCancelled, 9, 10, nil, nil, now))
}

func TestComputeCompletionTaskRatio(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 50.0, ComputeCompletion(StateInProgress, 5, 10, nil, nil, now))
	assert.Equal(t, 33.33, ComputeCompletion(StateInProgress, 1, 3, nil, nil, now))
	assert.Equal(t, 0.0, ComputeCompletion(StateInProgress, 0, 4, nil, nil, now))
	assert.Equal(t, 100.0, ComputeCompletion(StateInProgress, 4, 4, nil, nil, now))
}

func TestComputeCompletionCalendarFallback(t *testing.T) {
	start := datePtr(2026, 1, 1)
	end := datePtr(2026, 1, 21)

	// halfway through a 20 day span
	now := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 50.0, ComputeCompletion(StateInProgress, 0, 0, start, end, now))

	// before the start the elapsed share clamps to zero
	early := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, ComputeCompletion(StateInProgress, 0, 0, start, end, early))

	// past the end it clamps to the full span, not above 100
	late := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 100.0, ComputeCompletion(StateInProgress, 0, 0, start, end, late))
}

func TestComputeCompletionNoSignal(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, ComputeCompletion(StateInProgress, 0, 0, nil, nil, now))

	// inverted dates are treated as missing
	start := datePtr(2026, 2, 1)
	end := datePtr(2026, 1, 1)
	assert.Equal(t, 0.0, ComputeCompletion(StateInProgress, 0, 0, start, end, now))
}

func TestTransitionStatesHappyPath(t *testing.T) {
	cases := []struct {
		transition Transition
		current    InternshipState
		to         InternshipState
	}{
		{TransitionSubmit, StateDraft, StateSubmitted},
		{TransitionApprove, StateSubmitted, StateApproved},
		{TransitionStart, StateApproved, StateInProgress},
		{TransitionComplete, StateInProgress, StateCompleted},
		{TransitionScheduleDefense, StateCompleted, StateCompleted},
		{TransitionEvaluate, StateCompleted, StateEvaluated},
	}

	for _, tc := range cases {
		from, to, ok := TransitionStates(tc.transition, tc.current)
		assert.True(t, ok, "transition %s from %s", tc.transition, tc.current)
		assert.Equal(t, tc.current, from)
		assert.Equal(t, tc.to, to)
	}
}

func TestTransitionStatesRejectsWrongSource(t *testing.T) {
	_, _, ok := TransitionStates(TransitionApprove, StateDraft)
	assert.False(t, ok)

	_, _, ok = TransitionStates(TransitionEvaluate, StateInProgress)
	assert.False(t, ok)

	_, _, ok = TransitionStates(Transition("promote"), StateDraft)
	assert.False(t, ok)
}

func TestTransitionCancelFromAnyNonTerminal(t *testing.T) {
	for _, s := range []InternshipState{StateDraft, StateSubmitted, StateApproved, StateInProgress, StateCompleted} {
		from, to, ok := TransitionStates(TransitionCancel, s)
		assert.True(t, ok, "cancel from %s", s)
		assert.Equal(t, s, from)
		assert.Equal(t, StateCancelled, to)
	}

	_, _, ok := TransitionStates(TransitionCancel, StateEvaluated)
	assert.False(t, ok)
	_, _, ok = TransitionStates(TransitionCancel, StateCancelled)
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StateEvaluated.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.False(t, StateCompleted.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
}

func TestValidGrade(t *testing.T) {
	assert.True(t, ValidGrade(0))
	assert.True(t, ValidGrade(20))
	assert.True(t, ValidGrade(14.5))
	assert.False(t, ValidGrade(-0.5))
	assert.False(t, ValidGrade(20.01))
}

func TestValidateDates(t *testing.T) {
	i := &Internship{StartDate: datePtr(2026, 1, 1), EndDate: datePtr(2026, 3, 1)}
	assert.True(t, i.ValidateDates())

	i.EndDate = datePtr(2025, 12, 1)
	assert.False(t, i.ValidateDates())

	i.EndDate = nil
	assert.True(t, i.ValidateDates())
}

func TestDurationDays(t *testing.T) {
	i := &Internship{StartDate: datePtr(2026, 1, 1), EndDate: datePtr(2026, 1, 10)}
	assert.Equal(t, 10, i.DurationDays())

	i.EndDate = nil
	assert.Equal(t, 0, i.DurationDays())
}

func TestSupervisorUtilization(t *testing.T) {
	s := &Supervisor{Capacity: 5}
	assert.Equal(t, 0.6, s.Utilization(3))

	s.Capacity = 0
	assert.Equal(t, 0.0, s.Utilization(3))
}
