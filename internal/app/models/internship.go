package models

import (
	"math"
	"time"
)

// InternshipState is the workflow stage of an internship record.
type InternshipState string

const (
	StateDraft      InternshipState = "draft"
	StateSubmitted  InternshipState = "submitted"
	StateApproved   InternshipState = "approved"
	StateInProgress InternshipState = "in_progress"
	StateCompleted  InternshipState = "completed"
	StateEvaluated  InternshipState = "evaluated"
	StateCancelled  InternshipState = "cancelled"
)

// AllInternshipStates lists every state in workflow order. Dashboard
// partitions iterate this slice so payloads keep a stable field order.
var AllInternshipStates = []InternshipState{
	StateDraft, StateSubmitted, StateApproved, StateInProgress,
	StateCompleted, StateEvaluated, StateCancelled,
}

// IsTerminal reports whether no further transition may leave this state.
func (s InternshipState) IsTerminal() bool {
	return s == StateEvaluated || s == StateCancelled
}

// Transition is the name of a lifecycle action on an internship.
type Transition string

const (
	TransitionSubmit          Transition = "submit"
	TransitionApprove         Transition = "approve"
	TransitionStart           Transition = "start"
	TransitionComplete        Transition = "complete"
	TransitionScheduleDefense Transition = "schedule_defense"
	TransitionEvaluate        Transition = "evaluate"
	TransitionCancel          Transition = "cancel"
)

// transitionTable maps each transition to the state it requires and the
// state it produces. schedule_defense is a side-effect-only transition: it
// requires completed and leaves the record in completed.
var transitionTable = map[Transition]struct {
	From InternshipState
	To   InternshipState
}{
	TransitionSubmit:          {StateDraft, StateSubmitted},
	TransitionApprove:         {StateSubmitted, StateApproved},
	TransitionStart:           {StateApproved, StateInProgress},
	TransitionComplete:        {StateInProgress, StateCompleted},
	TransitionScheduleDefense: {StateCompleted, StateCompleted},
	TransitionEvaluate:        {StateCompleted, StateEvaluated},
	TransitionCancel:          {"", StateCancelled}, // any non-terminal source, resolved in TransitionStates
}

// KnownTransition reports whether t names a transition at all, regardless
// of whether any current state allows it.
func KnownTransition(t Transition) bool {
	_, known := transitionTable[t]
	return known
}

// TransitionStates resolves a transition against a current state. ok is
// false when the transition name is unknown or the current state does not
// allow it. cancel is reachable from every state except evaluated and
// cancelled itself.
func TransitionStates(t Transition, current InternshipState) (from, to InternshipState, ok bool) {
	entry, known := transitionTable[t]
	if !known {
		return "", "", false
	}
	if t == TransitionCancel {
		if current == StateEvaluated || current == StateCancelled {
			return "", "", false
		}
		return current, StateCancelled, true
	}
	if entry.From != current {
		return "", "", false
	}
	return entry.From, entry.To, true
}

// InternshipType classifies the placement.
type InternshipType string

const (
	TypeFinalProject InternshipType = "final_project"
	TypeSummer       InternshipType = "summer_internship"
	TypeObservation  InternshipType = "observation_internship"
	TypeProfessional InternshipType = "professional_internship"
)

// Internship is the hub entity: every task, document, presentation and
// meeting hangs off one of these.
type Internship struct {
	ID              int64           `json:"id"`
	ReferenceNumber string          `json:"referenceNumber"`
	Title           string          `json:"title"`
	Type            InternshipType  `json:"type"`
	State           InternshipState `json:"state"`
	Description     string          `json:"description,omitempty"`

	StudentIDs   []int64 `json:"studentIds"`
	SupervisorID *int64  `json:"supervisorId,omitempty"`
	AreaID       *int64  `json:"areaId,omitempty"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	// Defense and evaluation fields; all must be set before evaluate.
	DefenseDate  *time.Time `json:"defenseDate,omitempty"`
	DefenseRoom  string     `json:"defenseRoom,omitempty"`
	JuryIDs      []int64    `json:"juryIds,omitempty"`
	DefenseGrade *float64   `json:"defenseGrade,omitempty"`
	FinalGrade   *float64   `json:"finalGrade,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`

	CompletionPercentage float64 `json:"completionPercentage"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DurationDays returns the inclusive calendar span of the internship, or 0
// when dates are missing or inverted.
func (i *Internship) DurationDays() int {
	if i.StartDate == nil || i.EndDate == nil || i.EndDate.Before(*i.StartDate) {
		return 0
	}
	return int(i.EndDate.Sub(*i.StartDate).Hours()/24) + 1
}

// ComputeCompletion derives the completion percentage for an internship.
// Completed and evaluated records are always 100, cancelled always 0.
// Otherwise the done/total task ratio wins; with no tasks the elapsed
// share of the calendar span is used, clamped to the span. The result is
// clamped to [0,100] and rounded to two decimals.
func ComputeCompletion(state InternshipState, tasksDone, tasksTotal int, start, end *time.Time, now time.Time) float64 {
	switch {
	case state == StateCompleted || state == StateEvaluated:
		return 100
	case state == StateCancelled:
		return 0
	}

	var progress float64
	if tasksTotal > 0 {
		progress = float64(tasksDone) / float64(tasksTotal) * 100
	} else if start != nil && end != nil && !end.Before(*start) {
		total := end.Sub(*start).Hours() / 24
		if total > 0 {
			elapsed := now.Sub(*start).Hours() / 24
			if elapsed < 0 {
				elapsed = 0
			} else if elapsed > total {
				elapsed = total
			}
			progress = elapsed / total * 100
		}
	}

	return clampPercent(progress)
}

func clampPercent(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ValidateDates enforces end_date >= start_date when both are set.
func (i *Internship) ValidateDates() bool {
	if i.StartDate == nil || i.EndDate == nil {
		return true
	}
	return !i.EndDate.Before(*i.StartDate)
}

// ValidGrade reports whether a grade value is within the 0..20 scale.
func ValidGrade(g float64) bool {
	return g >= 0 && g <= 20
}
