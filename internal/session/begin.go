package session

import (
	"fmt"

	"github.com/besttest/besttest/pkg/types"
)

// Source resolves plans and cases. *store.Store satisfies it.
type Source interface {
	Plan(id string) (types.TestPlan, bool)
	ResolvePlan(id string) ([]types.CaseView, []types.CaseRef, error)
	AllTestCases() []types.CaseView
}

// Begin starts a session over the live cases of planID, or over every case
// as a manual run when planID is empty or MANUAL. References to deleted
// cases are returned so callers can report them.
func Begin(src Source, planID string) (*Session, []types.CaseRef, error) {
	var (
		plan     types.TestPlan
		cases    []types.CaseView
		dangling []types.CaseRef
	)
	if planID == "" || planID == types.ManualPlanID {
		cases = src.AllTestCases()
	} else {
		p, ok := src.Plan(planID)
		if !ok {
			return nil, nil, fmt.Errorf("plan %s: %w", planID, types.ErrNotFound)
		}
		live, refs, err := src.ResolvePlan(planID)
		if err != nil {
			return nil, nil, err
		}
		plan, cases, dangling = p, live, refs
	}
	s := New(plan)
	if err := s.Start(cases); err != nil {
		return nil, nil, err
	}
	return s, dangling, nil
}
