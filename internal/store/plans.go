package store

import (
	"strings"

	"github.com/besttest/besttest/pkg/types"
)

// CreateTestPlan stores a plan referencing the given case keys. Display
// fields are captured from the live hierarchy; unknown keys are kept as bare
// references and dropped when the plan is resolved.
func (s *Store) CreateTestPlan(title string, keys []string) (types.TestPlan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.TestPlan{}, types.ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := types.TestPlan{
		ID:        planIDPrefix + newID(),
		Title:     title,
		TestCases: s.caseRefs(keys),
		CreatedAt: s.now().UTC(),
	}
	s.state.Plans = append(s.state.Plans, p)
	return p, s.persist("create test plan")
}

// UpdateTestPlan replaces the title and membership of a plan.
func (s *Store) UpdateTestPlan(id, title string, keys []string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, types.ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plan(id)
	if !ok {
		return false, nil
	}
	p.Title = title
	p.TestCases = s.caseRefs(keys)
	return true, s.persist("update test plan")
}

// DeleteTestPlan removes a plan. Results recorded for it are kept.
func (s *Store) DeleteTestPlan(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Plans {
		if s.state.Plans[i].ID == id {
			s.state.Plans = append(s.state.Plans[:i], s.state.Plans[i+1:]...)
			return true, s.persist("delete test plan")
		}
	}
	return false, nil
}

// DuplicateTestPlan appends a copy titled "<title> (copy)".
func (s *Store) DuplicateTestPlan(id string) (types.TestPlan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.plan(id)
	if !ok {
		return types.TestPlan{}, false, nil
	}
	dup := types.TestPlan{
		ID:        planIDPrefix + newID(),
		Title:     src.Title + " (copy)",
		TestCases: append([]types.CaseRef{}, src.TestCases...),
		CreatedAt: s.now().UTC(),
	}
	s.state.Plans = append(s.state.Plans, dup)
	return dup, true, s.persist("duplicate test plan")
}

// Plan returns a copy of the plan with the given id.
func (s *Store) Plan(id string) (types.TestPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plan(id)
	if !ok {
		return types.TestPlan{}, false
	}
	cp := *p
	cp.TestCases = append([]types.CaseRef{}, p.TestCases...)
	return cp, true
}

// ResolvePlan returns the plan's live cases in plan order and the references
// whose case no longer exists.
func (s *Store) ResolvePlan(id string) ([]types.CaseView, []types.CaseRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plan(id)
	if !ok {
		return nil, nil, types.ErrNotFound
	}
	index := s.caseIndex()
	var (
		live     []types.CaseView
		dangling []types.CaseRef
	)
	for _, ref := range p.TestCases {
		if c, ok := index[ref.Key]; ok {
			live = append(live, c)
			continue
		}
		dangling = append(dangling, ref)
	}
	return live, dangling, nil
}

func (s *Store) plan(id string) (*types.TestPlan, bool) {
	for i := range s.state.Plans {
		if s.state.Plans[i].ID == id {
			return &s.state.Plans[i], true
		}
	}
	return nil, false
}

func (s *Store) caseIndex() map[string]types.CaseView {
	cases := s.state.Cases()
	index := make(map[string]types.CaseView, len(cases))
	for _, c := range cases {
		index[c.Key] = c
	}
	return index
}

// caseRefs builds deduplicated references for keys. Callers hold s.mu.
func (s *Store) caseRefs(keys []string) []types.CaseRef {
	index := s.caseIndex()
	seen := make(map[string]bool, len(keys))
	refs := make([]types.CaseRef, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		ref := types.CaseRef{Key: k}
		if c, ok := index[k]; ok {
			ref.CaseID = c.ID
			ref.Name = c.Name
			ref.Module = c.ModuleName
		}
		refs = append(refs, ref)
	}
	return refs
}
