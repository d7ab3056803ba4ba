package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// Store holds the state of one project.
type Store struct {
	mu        sync.Mutex
	repo      types.Repository
	projectID string
	state     types.State
	dirty     bool
	detached  bool
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads projectID from repo.
func Open(repo types.Repository, projectID string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, types.ErrInvalidID
	}
	s := &Store{
		repo:      repo,
		projectID: projectID,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := repo.Load(projectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}
	s.state = st
	s.logger = s.logger.With("project", projectID)
	return s, nil
}

// ProjectID returns the project this store was opened for.
func (s *Store) ProjectID() string { return s.projectID }

// persist writes the full state. Callers hold s.mu.
func (s *Store) persist(op string) error {
	if s.detached {
		return fmt.Errorf("%s: project %s: %w", op, s.projectID, types.ErrNotFound)
	}
	if err := s.repo.Save(s.projectID, s.state); err != nil {
		s.dirty = true
		s.logger.Warn("persist failed, keeping in-memory state", "op", op, "error", err)
		return &types.PersistError{Op: op, Err: err}
	}
	s.dirty = false
	s.logger.Debug("state persisted", "op", op)
	return nil
}

// Flush writes the current state again. It is the retry path after a
// PersistError.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist("flush")
}

// Detach stops the store from writing to the repository. It waits for an
// in-flight mutation to finish, so once it returns the project namespace can
// be purged without a late write recreating it. Mutations after Detach fail
// with ErrNotFound.
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
}

// Dirty reports whether the last write to the repository failed.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// IsPersistError reports whether err came from a failed repository write.
func IsPersistError(err error) bool {
	var pe *types.PersistError
	return errors.As(err, &pe)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() types.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Modules returns a copy of the module hierarchy.
func (s *Store) Modules() []types.Module {
	return s.Snapshot().Modules
}

// Plans returns a copy of the test plans.
func (s *Store) Plans() []types.TestPlan {
	return s.Snapshot().Plans
}

// Results returns a copy of the results, newest first.
func (s *Store) Results() []types.TestResult {
	return s.Snapshot().Results
}

// AllTestCases flattens the hierarchy in traversal order.
func (s *Store) AllTestCases() []types.CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Cases()
}

// CaseCount returns the number of test cases in the project.
func (s *Store) CaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CaseCount()
}

// LookupCase finds a case by internal key, falling back to the first case
// whose display ID matches.
func (s *Store) LookupCase(ref string) (types.CaseView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cases := s.state.Cases()
	for _, c := range cases {
		if c.Key == ref {
			return c, true
		}
	}
	for _, c := range cases {
		if c.ID == ref {
			return c, true
		}
	}
	return types.CaseView{}, false
}

// Search returns the cases whose name or display ID contains query,
// ignoring case. An empty query matches every case.
func (s *Store) Search(query string) []types.CaseView {
	q := strings.ToLower(strings.TrimSpace(query))
	all := s.AllTestCases()
	if q == "" {
		return all
	}
	var out []types.CaseView
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.ID), q) {
			out = append(out, c)
		}
	}
	return out
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.ErrInvalidName
	}
	return name, nil
}
