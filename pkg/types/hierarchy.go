package types

import "strings"

// Priority of a test case.
type Priority string

// Recognized priorities.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// CaseType classifies how a test case is exercised.
type CaseType string

// Recognized test case types.
const (
	TypeUI       CaseType = "UI"
	TypeE2E      CaseType = "e2e"
	TypeFunction CaseType = "Function"
	TypeAPI      CaseType = "API"
)

// CaseStatusNotStarted is the status given to newly created test cases.
const CaseStatusNotStarted = "Not Started"

// ParsePriority normalizes a free-text priority. Matching is
// case-insensitive; "critical" maps to High and "middle" to Medium.
// An empty string yields Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "high", "critical":
		return PriorityHigh, nil
	case "medium", "middle":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", ErrInvalidPriority
	}
}

// ParseCaseType normalizes a free-text case type. Matching is
// case-insensitive. An empty string yields UI.
func ParseCaseType(s string) (CaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ui":
		return TypeUI, nil
	case "e2e":
		return TypeE2E, nil
	case "function":
		return TypeFunction, nil
	case "api":
		return TypeAPI, nil
	default:
		return "", ErrInvalidType
	}
}

// Module is the top-level grouping of scenarios within a project.
type Module struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Expanded  bool       `json:"expanded"`
	Scenarios []Scenario `json:"scenarios"`
}

// Scenario groups test cases within a module.
type Scenario struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Expanded  bool       `json:"expanded"`
	TestCases []TestCase `json:"testCases"`
}

// TestCase is an individual test specification. Key is the internal unique
// identifier used for ownership and references; ID is the user-visible label
// and may repeat across cases.
type TestCase struct {
	Key            string   `json:"key"`
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Priority       Priority `json:"priority"`
	Type           CaseType `json:"type"`
	Steps          string   `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
	Reference      string   `json:"reference"`
	Status         string   `json:"status"`
}

// CaseCount returns the number of test cases across all scenarios.
func (m *Module) CaseCount() int {
	n := 0
	for i := range m.Scenarios {
		n += len(m.Scenarios[i].TestCases)
	}
	return n
}

// scenarioIndex returns the index of the scenario with the given ID, or -1.
func (m *Module) scenarioIndex(id string) int {
	for i := range m.Scenarios {
		if m.Scenarios[i].ID == id {
			return i
		}
	}
	return -1
}

// Scenario returns a pointer to the scenario with the given ID.
func (m *Module) Scenario(id string) (*Scenario, bool) {
	i := m.scenarioIndex(id)
	if i < 0 {
		return nil, false
	}
	return &m.Scenarios[i], true
}

// RemoveScenario deletes the scenario with the given ID and reports whether
// it existed.
func (m *Module) RemoveScenario(id string) bool {
	i := m.scenarioIndex(id)
	if i < 0 {
		return false
	}
	m.Scenarios = append(m.Scenarios[:i], m.Scenarios[i+1:]...)
	return true
}

func (s *Scenario) caseIndex(key string) int {
	for i := range s.TestCases {
		if s.TestCases[i].Key == key {
			return i
		}
	}
	return -1
}

// TestCase returns a pointer to the test case with the given key.
func (s *Scenario) TestCase(key string) (*TestCase, bool) {
	i := s.caseIndex(key)
	if i < 0 {
		return nil, false
	}
	return &s.TestCases[i], true
}

// RemoveTestCase deletes the test case with the given key and reports
// whether it existed.
func (s *Scenario) RemoveTestCase(key string) bool {
	i := s.caseIndex(key)
	if i < 0 {
		return false
	}
	s.TestCases = append(s.TestCases[:i], s.TestCases[i+1:]...)
	return true
}

// CaseView is a test case flattened out of the hierarchy together with the
// names of its owners.
type CaseView struct {
	TestCase
	ModuleID     string `json:"moduleId"`
	ModuleName   string `json:"moduleName"`
	ScenarioID   string `json:"scenarioId"`
	ScenarioName string `json:"scenarioName"`
}
