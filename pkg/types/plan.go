package types

import "time"

// ManualPlanID and ManualPlanTitle identify ad-hoc execution runs that are
// not tied to a stored plan.
const (
	ManualPlanID    = "MANUAL"
	ManualPlanTitle = "Manual Execution"
)

// CaseRef is a weak reference from a plan to a test case. The display fields
// are captured when the plan is saved so a reference to a deleted case can
// still be shown.
type CaseRef struct {
	Key    string `json:"key"`
	CaseID string `json:"caseId"`
	Name   string `json:"name,omitempty"`
	Module string `json:"module,omitempty"`
}

// TestPlan is a named, ordered subset of test case references.
type TestPlan struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TestCases []CaseRef `json:"testCases"`
	CreatedAt time.Time `json:"createdAt"`
}

// Keys returns the referenced test case keys in plan order.
func (p *TestPlan) Keys() []string {
	keys := make([]string, len(p.TestCases))
	for i, ref := range p.TestCases {
		keys[i] = ref.Key
	}
	return keys
}
