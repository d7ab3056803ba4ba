// Package memory provides an in-process Repository used by tests and by
// `--backend memory` for throwaway sessions.
package memory

import (
	"sync"

	"github.com/besttest/besttest/pkg/types"
)

// Backend keeps deep copies of everything saved.
type Backend struct {
	mu       sync.RWMutex
	projects []types.Project
	states   map[string]types.State
	closed   bool
}

var _ types.Repository = (*Backend)(nil)

// New returns an empty Backend.
func New() *Backend {
	return &Backend{states: make(map[string]types.State)}
}

// LoadProjects returns a copy of the saved project catalog.
func (b *Backend) LoadProjects() ([]types.Project, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, types.ErrRepositoryClosed
	}
	return append([]types.Project{}, b.projects...), nil
}

// SaveProjects replaces the project catalog.
func (b *Backend) SaveProjects(projects []types.Project) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	b.projects = append([]types.Project{}, projects...)
	return nil
}

// Load returns a deep copy of the project's state, or an empty state if
// nothing was saved for it.
func (b *Backend) Load(projectID string) (types.State, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return types.State{}, types.ErrRepositoryClosed
	}
	st, ok := b.states[projectID]
	if !ok {
		return types.State{}, nil
	}
	return st.Clone(), nil
}

// Save stores a deep copy of st under projectID.
func (b *Backend) Save(projectID string, st types.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	b.states[projectID] = st.Clone()
	return nil
}

// Purge drops the project's state. Purging an unknown project is a no-op.
func (b *Backend) Purge(projectID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	delete(b.states, projectID)
	return nil
}

// Close marks the backend closed; later calls fail with
// types.ErrRepositoryClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
