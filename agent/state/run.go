package state

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// MaxAttempts bounds drafting attempts per run. Not configurable per call.
const MaxAttempts = 3

type Phase string

const (
	PhaseStart     Phase = "START"
	PhaseDrafting  Phase = "DRAFTING"
	PhaseReviewing Phase = "REVIEWING"
	PhaseRetry     Phase = "RETRY"
	PhaseAccepted  Phase = "ACCEPTED"
	PhaseExhausted Phase = "EXHAUSTED"
)

var transitions = map[Phase][]Phase{
	PhaseStart:     {PhaseDrafting},
	PhaseDrafting:  {PhaseReviewing, PhaseRetry, PhaseExhausted},
	PhaseReviewing: {PhaseAccepted, PhaseRetry, PhaseExhausted},
	PhaseRetry:     {PhaseDrafting},
}

func (p Phase) Terminal() bool {
	return p == PhaseAccepted || p == PhaseExhausted
}

// AttemptState is the loop bookkeeping owned by one run.
type AttemptState struct {
	AttemptNumber int                  `json:"attempt_number"`
	LastFeedback  string               `json:"last_feedback,omitempty"`
	CandidatePlan contractx.WeeklyPlan `json:"candidate_plan,omitempty"`
}

type AttemptRecord struct {
	Attempt  int                 `json:"attempt"`
	Meals    int                 `json:"meals"`
	Critique *contractx.Critique `json:"critique,omitempty"`
	Error    string              `json:"error,omitempty"`
	Result   Phase               `json:"result"`
}

// RunState is the mutable state of a single orchestration run. It is never
// shared between runs.
type RunState struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Phase     Phase     `json:"phase"`

	MemoryContext string `json:"memory_context,omitempty"`
	AttemptState

	Critique    *contractx.Critique  `json:"critique,omitempty"`
	LastFailure error                `json:"-"`
	FinalPlan   contractx.WeeklyPlan `json:"final_plan,omitempty"`
	History     []AttemptRecord      `json:"history,omitempty"`
}

func NewRunState(runID string, now time.Time) *RunState {
	return &RunState{
		RunID:     runID,
		StartedAt: now.UTC(),
		Phase:     PhaseStart,
	}
}

func (s *RunState) Transition(to Phase) error {
	for _, allowed := range transitions[s.Phase] {
		if allowed == to {
			s.Phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: illegal transition %s -> %s", contractx.ErrValidation, s.Phase, to)
}

// BeginAttempt enters DRAFTING and clears the previous candidate.
func (s *RunState) BeginAttempt() error {
	if s.AttemptNumber >= MaxAttempts {
		return fmt.Errorf("%w: attempt budget of %d spent", contractx.ErrValidation, MaxAttempts)
	}
	if err := s.Transition(PhaseDrafting); err != nil {
		return err
	}
	s.AttemptNumber++
	s.CandidatePlan = nil
	s.Critique = nil
	return nil
}

func (s *RunState) AttemptsLeft() bool {
	return s.AttemptNumber < MaxAttempts
}

func (s *RunState) Outcome() contractx.Outcome {
	switch s.Phase {
	case PhaseAccepted:
		return contractx.OutcomeAccepted
	case PhaseExhausted:
		return contractx.OutcomeExhausted
	default:
		return ""
	}
}

func (s *RunState) record(result Phase, err error) {
	rec := AttemptRecord{
		Attempt: s.AttemptNumber,
		Meals:   len(s.CandidatePlan),
		Result:  result,
	}
	if s.Critique != nil {
		c := *s.Critique
		rec.Critique = &c
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.History = append(s.History, rec)
}

// FailAttempt records a drafting failure and moves to RETRY, or to EXHAUSTED
// with an empty plan when no attempts are left.
func (s *RunState) FailAttempt(err error) error {
	s.LastFailure = err
	s.CandidatePlan = nil
	next := PhaseRetry
	if !s.AttemptsLeft() {
		next = PhaseExhausted
		s.FinalPlan = nil
	}
	if terr := s.Transition(next); terr != nil {
		return terr
	}
	s.record(next, err)
	return nil
}

func (s *RunState) Drafted(plan contractx.WeeklyPlan) error {
	s.CandidatePlan = plan
	return s.Transition(PhaseReviewing)
}

// Judge applies a critique to the current candidate. rejection is the
// feedback carried into the next draft.
func (s *RunState) Judge(c contractx.Critique, rejection string) error {
	s.Critique = &c

	var next Phase
	switch {
	case c.Approved:
		next = PhaseAccepted
		s.FinalPlan = s.CandidatePlan
	case s.AttemptsLeft():
		next = PhaseRetry
		s.LastFeedback = rejection
	default:
		next = PhaseExhausted
		s.FinalPlan = s.CandidatePlan
	}

	if err := s.Transition(next); err != nil {
		return err
	}
	s.record(next, nil)
	return nil
}
