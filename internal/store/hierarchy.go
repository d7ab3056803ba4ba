package store

import (
	"strings"

	"github.com/besttest/besttest/pkg/types"
)

// CreateModule appends a new, expanded module with no scenarios.
func (s *Store) CreateModule(name string) (types.Module, error) {
	name, err := validName(name)
	if err != nil {
		return types.Module{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := types.Module{ID: newID(), Name: name, Expanded: true, Scenarios: []types.Scenario{}}
	s.state.Modules = append(s.state.Modules, m)
	return m, s.persist("create module")
}

// RenameModule replaces the module name, keeping its scenarios and
// expanded flag.
func (s *Store) RenameModule(id, name string) (bool, error) {
	name, err := validName(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.Module(id)
	if !ok {
		return false, nil
	}
	m.Name = name
	return true, s.persist("rename module")
}

// DeleteModule removes a module with all of its scenarios and test cases.
// Plans and results that reference those cases are left untouched.
func (s *Store) DeleteModule(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Modules {
		if s.state.Modules[i].ID != id {
			continue
		}
		s.logger.Debug("deleting module", "module", id,
			"scenarios", len(s.state.Modules[i].Scenarios),
			"cases", s.state.Modules[i].CaseCount())
		s.state.Modules = append(s.state.Modules[:i], s.state.Modules[i+1:]...)
		return true, s.persist("delete module")
	}
	return false, nil
}

// ToggleModule flips the expanded flag.
func (s *Store) ToggleModule(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.Module(id)
	if !ok {
		return false, nil
	}
	m.Expanded = !m.Expanded
	return true, s.persist("toggle module")
}

// CreateScenario appends a scenario to a module. ok is false when the module
// does not exist.
func (s *Store) CreateScenario(moduleID, name string) (types.Scenario, bool, error) {
	name, err := validName(name)
	if err != nil {
		return types.Scenario{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.Module(moduleID)
	if !ok {
		return types.Scenario{}, false, nil
	}
	sc := types.Scenario{ID: newID(), Name: name, Expanded: true, TestCases: []types.TestCase{}}
	m.Scenarios = append(m.Scenarios, sc)
	return sc, true, s.persist("create scenario")
}

// RenameScenario replaces a scenario name.
func (s *Store) RenameScenario(moduleID, scenarioID, name string) (bool, error) {
	name, err := validName(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok {
		return false, nil
	}
	sc.Name = name
	return true, s.persist("rename scenario")
}

// DeleteScenario removes a scenario and its test cases.
func (s *Store) DeleteScenario(moduleID, scenarioID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.Module(moduleID)
	if !ok || !m.RemoveScenario(scenarioID) {
		return false, nil
	}
	return true, s.persist("delete scenario")
}

// ToggleScenario flips the expanded flag of a scenario.
func (s *Store) ToggleScenario(moduleID, scenarioID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok {
		return false, nil
	}
	sc.Expanded = !sc.Expanded
	return true, s.persist("toggle scenario")
}

// CreateTestCase validates tc and appends it to a scenario. The key is
// always generated; a blank display ID becomes TC_<unix-ms>. ok is false
// when the scenario does not exist.
func (s *Store) CreateTestCase(moduleID, scenarioID string, tc types.TestCase) (types.TestCase, bool, error) {
	tc, err := normalizeCase(tc)
	if err != nil {
		return types.TestCase{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok {
		return types.TestCase{}, false, nil
	}
	tc.Key = newID()
	if tc.ID == "" {
		tc.ID = displayCaseID(s.now())
	}
	tc.Status = types.CaseStatusNotStarted
	sc.TestCases = append(sc.TestCases, tc)
	return tc, true, s.persist("create test case")
}

// UpdateTestCase replaces the editable fields of a case. Key and Status are
// kept; a blank display ID keeps the current one.
func (s *Store) UpdateTestCase(moduleID, scenarioID, key string, tc types.TestCase) (bool, error) {
	tc, err := normalizeCase(tc)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok {
		return false, nil
	}
	cur, ok := sc.TestCase(key)
	if !ok {
		return false, nil
	}
	tc.Key = cur.Key
	tc.Status = cur.Status
	if tc.ID == "" {
		tc.ID = cur.ID
	}
	*cur = tc
	return true, s.persist("update test case")
}

// DeleteTestCase removes a case from its scenario.
func (s *Store) DeleteTestCase(moduleID, scenarioID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok || !sc.RemoveTestCase(key) {
		return false, nil
	}
	return true, s.persist("delete test case")
}

// DuplicateTestCase inserts a copy of a case right after the original with
// a fresh key and the label "<id>_copy".
func (s *Store) DuplicateTestCase(moduleID, scenarioID, key string) (types.TestCase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenario(moduleID, scenarioID)
	if !ok {
		return types.TestCase{}, false, nil
	}
	idx := -1
	for i := range sc.TestCases {
		if sc.TestCases[i].Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.TestCase{}, false, nil
	}

	dup := sc.TestCases[idx]
	dup.Key = newID()
	dup.ID += "_copy"
	dup.Status = types.CaseStatusNotStarted

	cases := make([]types.TestCase, 0, len(sc.TestCases)+1)
	cases = append(cases, sc.TestCases[:idx+1]...)
	cases = append(cases, dup)
	cases = append(cases, sc.TestCases[idx+1:]...)
	sc.TestCases = cases
	return dup, true, s.persist("duplicate test case")
}

// RegenerateCaseIDs relabels every case TC_001, TC_002, ... in traversal
// order. Keys and plan references are unaffected.
func (s *Store) RegenerateCaseIDs() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for mi := range s.state.Modules {
		m := &s.state.Modules[mi]
		for si := range m.Scenarios {
			sc := &m.Scenarios[si]
			for ci := range sc.TestCases {
				n++
				sc.TestCases[ci].ID = sequentialCaseID(n)
			}
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.persist("regenerate case ids")
}

// scenario resolves a scenario within a module. Callers hold s.mu.
func (s *Store) scenario(moduleID, scenarioID string) (*types.Scenario, bool) {
	m, ok := s.state.Module(moduleID)
	if !ok {
		return nil, false
	}
	return m.Scenario(scenarioID)
}

// normalizeCase trims text fields and validates name, priority and type.
func normalizeCase(tc types.TestCase) (types.TestCase, error) {
	name, err := validName(tc.Name)
	if err != nil {
		return tc, err
	}
	tc.Name = name
	tc.ID = strings.TrimSpace(tc.ID)

	p, err := types.ParsePriority(string(tc.Priority))
	if err != nil {
		return tc, err
	}
	tc.Priority = p

	ct, err := types.ParseCaseType(string(tc.Type))
	if err != nil {
		return tc, err
	}
	tc.Type = ct
	return tc, nil
}
