package store

import (
	"strings"

	"github.com/besttest/besttest/pkg/types"
)

// RecordTestResult snapshots a finished execution of plan and prepends it to
// the results. Counts are derived from details; unrecognized verdicts count
// as Not Tested.
func (s *Store) RecordTestResult(plan types.TestPlan, details []types.ResultDetail) (types.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	planID, planName := plan.ID, plan.Title
	if planID == "" {
		planID, planName = types.ManualPlanID, types.ManualPlanTitle
	}

	r := types.TestResult{
		ID:         resultIDPrefix + newID(),
		PlanID:     planID,
		PlanName:   planName,
		ExecutedAt: s.now().UTC(),
		Details:    append([]types.ResultDetail{}, details...),
	}
	r.Recount()

	s.state.Results = append([]types.TestResult{r}, s.state.Results...)
	s.logger.Info("test result recorded", "result", r.ID, "plan", r.PlanID,
		"total", r.Total, "passed", r.Passed, "failed", r.Failed)
	return r, s.persist("record test result")
}

// RenameTestResult changes only the plan name shown for a result.
func (s *Store) RenameTestResult(id, planName string) (bool, error) {
	planName = strings.TrimSpace(planName)
	if planName == "" {
		return false, types.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.result(id)
	if !ok {
		return false, nil
	}
	r.PlanName = planName
	return true, s.persist("rename test result")
}

// DeleteTestResult removes a result.
func (s *Store) DeleteTestResult(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Results {
		if s.state.Results[i].ID == id {
			s.state.Results = append(s.state.Results[:i], s.state.Results[i+1:]...)
			return true, s.persist("delete test result")
		}
	}
	return false, nil
}

// Result returns a copy of the result with the given id.
func (s *Store) Result(id string) (types.TestResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.result(id)
	if !ok {
		return types.TestResult{}, false
	}
	cp := *r
	cp.Details = append([]types.ResultDetail{}, r.Details...)
	return cp, true
}

// LatestResultForPlan returns the most recent result recorded for planID.
func (s *Store) LatestResultForPlan(planID string) (types.TestResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *types.TestResult
	for i := range s.state.Results {
		r := &s.state.Results[i]
		if r.PlanID != planID {
			continue
		}
		if latest == nil || r.ExecutedAt.After(latest.ExecutedAt) {
			latest = r
		}
	}
	if latest == nil {
		return types.TestResult{}, false
	}
	cp := *latest
	cp.Details = append([]types.ResultDetail{}, latest.Details...)
	return cp, true
}

func (s *Store) result(id string) (*types.TestResult, bool) {
	for i := range s.state.Results {
		if s.state.Results[i].ID == id {
			return &s.state.Results[i], true
		}
	}
	return nil, false
}
