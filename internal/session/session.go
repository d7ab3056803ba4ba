// Package session drives one execution pass over an ordered list of test
// cases: the user (or an Executor) assigns a verdict to each case, and
// Finish materializes the verdicts as a TestResult.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/besttest/besttest/pkg/types"
)

// State of a Session.
type State int

const (
	Idle State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "in progress"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Recorder persists a finished run. *store.Store satisfies it.
type Recorder interface {
	RecordTestResult(plan types.TestPlan, details []types.ResultDetail) (types.TestResult, error)
}

// Entry is the verdict held for one case.
type Entry struct {
	Verdict     types.Verdict `json:"result"`
	Comments    string        `json:"comments"`
	Screenshots []string      `json:"screenshots,omitempty"`
}

// Stats counts the verdicts currently held by a session.
type Stats struct {
	Total     int `json:"total"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	NotTested int `json:"notTested"`
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	plan     types.TestPlan
	state    State
	cases    []types.CaseView
	verdicts map[string]Entry
	cursor   int
	result   types.TestResult
}

// New returns an idle session for plan. A zero plan is an ad-hoc run.
func New(plan types.TestPlan) *Session {
	if plan.ID == "" {
		plan.ID = types.ManualPlanID
		plan.Title = types.ManualPlanTitle
	}
	return &Session{plan: plan}
}

// Plan returns the plan the session runs.
func (s *Session) Plan() types.TestPlan { return s.plan }

// Start moves Idle to InProgress with every case Not Tested and the cursor
// on the first case.
func (s *Session) Start(cases []types.CaseView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case InProgress:
		return types.ErrSessionStarted
	case Finished:
		return types.ErrSessionFinished
	}
	s.cases = append([]types.CaseView(nil), cases...)
	s.verdicts = make(map[string]Entry, len(cases))
	for _, c := range s.cases {
		s.verdicts[c.Key] = Entry{Verdict: types.VerdictNotTested}
	}
	s.cursor = 0
	s.state = InProgress
	return nil
}

// SetVerdict records the verdict for any case in the session, not only the
// current one. Evidence already attached to the case is kept.
func (s *Session) SetVerdict(key string, v types.Verdict, comments string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if !v.Valid() {
		return types.ErrInvalidVerdict
	}
	e, ok := s.verdicts[key]
	if !ok {
		return fmt.Errorf("case %s: %w", key, types.ErrNotFound)
	}
	e.Verdict, e.Comments = v, comments
	s.verdicts[key] = e
	return nil
}

// SetEvidence replaces the screenshots attached to a case. Empty names are
// dropped.
func (s *Session) SetEvidence(key string, screenshots []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	e, ok := s.verdicts[key]
	if !ok {
		return fmt.Errorf("case %s: %w", key, types.ErrNotFound)
	}
	e.Screenshots = nil
	for _, name := range screenshots {
		if name = strings.TrimSpace(name); name != "" {
			e.Screenshots = append(e.Screenshots, name)
		}
	}
	s.verdicts[key] = e
	return nil
}

// Verdict returns the entry held for key.
func (s *Session) Verdict(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.verdicts[key]
	return e, ok
}

// Next advances the cursor, stopping at the last case.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < len(s.cases)-1 {
		s.cursor++
	}
	return s.cursor
}

// Prev moves the cursor back, stopping at the first case.
func (s *Session) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 {
		s.cursor--
	}
	return s.cursor
}

// Seek moves the cursor to i, clamped to the case range.
func (s *Session) Seek(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case i < 0:
		i = 0
	case i > len(s.cases)-1:
		i = max(len(s.cases)-1, 0)
	}
	s.cursor = i
	return s.cursor
}

// Current returns the case under the cursor.
func (s *Session) Current() (types.CaseView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cases) == 0 {
		return types.CaseView{}, false
	}
	return s.cases[s.cursor], true
}

// Cursor returns the cursor position.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Cases returns the cases in run order.
func (s *Session) Cases() []types.CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CaseView(nil), s.cases...)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats counts the verdicts held so far.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.cases)}
	for _, c := range s.cases {
		switch s.verdicts[c.Key].Verdict {
		case types.VerdictPassed:
			st.Passed++
		case types.VerdictFailed:
			st.Failed++
		case types.VerdictSkipped:
			st.Skipped++
		default:
			st.NotTested++
		}
	}
	return st
}

// Finish records the verdicts through rec and moves to Finished. When rec
// fails the session stays InProgress so Finish can be called again. A
// persistence failure still finishes the session: the result exists in the
// recorder's memory and only needs to be flushed.
func (s *Session) Finish(rec Recorder) (types.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return types.TestResult{}, err
	}
	details := make([]types.ResultDetail, 0, len(s.cases))
	for _, c := range s.cases {
		e := s.verdicts[c.Key]
		details = append(details, types.ResultDetail{
			Key:         c.Key,
			ID:          c.ID,
			Name:        c.Name,
			Module:      c.ModuleName,
			Scenario:    c.ScenarioName,
			Result:      e.Verdict,
			Comments:    e.Comments,
			Screenshots: append([]string(nil), e.Screenshots...),
		})
	}

	r, err := rec.RecordTestResult(s.plan, details)
	if errors.Is(err, types.ErrPersist) {
		// The recorder kept the result in memory; only the write failed.
		s.state = Finished
		s.result = r
		return r, err
	}
	if err != nil {
		return types.TestResult{}, fmt.Errorf("finish session: %w", err)
	}
	s.state = Finished
	s.result = r
	return r, nil
}

// Result returns the recorded result once the session is Finished.
func (s *Session) Result() (types.TestResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.state == Finished
}

func (s *Session) requireInProgress() error {
	switch s.state {
	case Idle:
		return types.ErrSessionNotStarted
	case Finished:
		return types.ErrSessionFinished
	}
	return nil
}
