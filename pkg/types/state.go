package types

import "time"

// State is everything stored in one project namespace.
type State struct {
	Modules []Module     `json:"testModules"`
	Plans   []TestPlan   `json:"testPlans"`
	Results []TestResult `json:"testResults"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Modules: make([]Module, len(s.Modules)),
		Plans:   make([]TestPlan, len(s.Plans)),
		Results: make([]TestResult, len(s.Results)),
	}
	for i, m := range s.Modules {
		out.Modules[i] = cloneModule(m)
	}
	for i, p := range s.Plans {
		p.TestCases = append([]CaseRef(nil), p.TestCases...)
		out.Plans[i] = p
	}
	for i, r := range s.Results {
		r.Details = append([]ResultDetail(nil), r.Details...)
		out.Results[i] = r
	}
	return out
}

func cloneModule(m Module) Module {
	scenarios := make([]Scenario, len(m.Scenarios))
	for i, sc := range m.Scenarios {
		sc.TestCases = append([]TestCase(nil), sc.TestCases...)
		scenarios[i] = sc
	}
	m.Scenarios = scenarios
	return m
}

// CaseCount returns the number of test cases across the hierarchy.
func (s *State) CaseCount() int {
	n := 0
	for i := range s.Modules {
		n += s.Modules[i].CaseCount()
	}
	return n
}

// Cases flattens the hierarchy in traversal order: modules, then scenarios,
// then test cases, each in stored order.
func (s *State) Cases() []CaseView {
	var out []CaseView
	for _, m := range s.Modules {
		for _, sc := range m.Scenarios {
			for _, tc := range sc.TestCases {
				out = append(out, CaseView{
					TestCase:     tc,
					ModuleID:     m.ID,
					ModuleName:   m.Name,
					ScenarioID:   sc.ID,
					ScenarioName: sc.Name,
				})
			}
		}
	}
	return out
}

// Module returns a pointer to the module with the given ID.
func (s *State) Module(id string) (*Module, bool) {
	for i := range s.Modules {
		if s.Modules[i].ID == id {
			return &s.Modules[i], true
		}
	}
	return nil, false
}

// LastTested returns the newest ExecutedAt across results, or nil when the
// project has never been executed.
func (s *State) LastTested() *time.Time {
	var latest *time.Time
	for i := range s.Results {
		at := s.Results[i].ExecutedAt
		if latest == nil || at.After(*latest) {
			t := at
			latest = &t
		}
	}
	return latest
}
