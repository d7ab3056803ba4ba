package jsonl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// fileExt is the extension of namespace files.
const fileExt = ".jsonl"

// Backend stores each namespace in DataDir/<namespace>.jsonl.
type Backend struct {
	mu      sync.RWMutex
	dataDir string
	closed  bool
}

var _ types.Repository = (*Backend)(nil)

// Open creates DataDir if needed and returns a Backend rooted there.
func Open(dataDir string) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dataDir: dataDir}, nil
}

// DataDir returns the directory holding the namespace files.
func (b *Backend) DataDir() string { return b.dataDir }

// NamespacePath returns the file that holds namespace ns.
func NamespacePath(dataDir, ns string) string {
	return filepath.Join(dataDir, ns+fileExt)
}

// validNamespace rejects names that would escape DataDir.
func validNamespace(ns string) bool {
	if ns == "" || ns == "." || ns == ".." {
		return false
	}
	return !strings.ContainsAny(ns, `/\`)
}

// LoadProjects returns the project list from the global namespace.
func (b *Backend) LoadProjects() ([]types.Project, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, types.ErrRepositoryClosed
	}

	recs, err := b.readNamespace(types.GlobalNamespace)
	if err != nil {
		return nil, err
	}
	projects := []types.Project{}
	if err := decodeValue(recs, types.KeyProjects, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SaveProjects replaces the project list.
func (b *Backend) SaveProjects(projects []types.Project) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	if projects == nil {
		projects = []types.Project{}
	}
	return b.writeNamespace(types.GlobalNamespace, map[string]any{types.KeyProjects: projects})
}

// Load returns the State stored for projectID.
func (b *Backend) Load(projectID string) (types.State, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return types.State{}, types.ErrRepositoryClosed
	}
	if !validNamespace(projectID) {
		return types.State{}, types.ErrInvalidID
	}

	recs, err := b.readNamespace(projectID)
	if err != nil {
		return types.State{}, err
	}
	var st types.State
	if err := decodeValue(recs, types.KeyModules, &st.Modules); err != nil {
		return types.State{}, err
	}
	if err := decodeValue(recs, types.KeyPlans, &st.Plans); err != nil {
		return types.State{}, err
	}
	if err := decodeValue(recs, types.KeyResults, &st.Results); err != nil {
		return types.State{}, err
	}
	return st, nil
}

// Save writes the whole State for projectID in one atomic file replace.
func (b *Backend) Save(projectID string, st types.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	if !validNamespace(projectID) {
		return types.ErrInvalidID
	}
	return b.writeNamespace(projectID, map[string]any{
		types.KeyModules: nonNil(st.Modules),
		types.KeyPlans:   nonNil(st.Plans),
		types.KeyResults: nonNil(st.Results),
	})
}

// Purge removes the namespace file for projectID. Idempotent.
func (b *Backend) Purge(projectID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	if !validNamespace(projectID) {
		return types.ErrInvalidID
	}
	err := os.Remove(NamespacePath(b.dataDir, projectID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove namespace %s: %w", projectID, err)
	}
	return nil
}

// Close marks the backend closed. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Namespaces lists the project namespaces present in DataDir.
func (b *Backend) Namespaces() ([]string, error) {
	entries, err := os.ReadDir(b.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ns := strings.TrimSuffix(name, fileExt)
		if ns == types.GlobalNamespace {
			continue
		}
		out = append(out, ns)
	}
	return out, nil
}

// readNamespace returns the decoded records of a namespace. A missing file is
// an empty namespace.
func (b *Backend) readNamespace(ns string) (map[string]Record, error) {
	lines, err := ReadJSONL(NamespacePath(b.dataDir, ns))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Record{}, nil
		}
		return nil, err
	}
	return DecodeRecords(lines), nil
}

// writeNamespace encodes values in types.StandardKeys order (projects last)
// and replaces the namespace file.
func (b *Backend) writeNamespace(ns string, values map[string]any) error {
	now := time.Now().UTC().Format(time.RFC3339)
	keys := append(append([]string(nil), types.StandardKeys...), types.KeyProjects)

	var lines []json.RawMessage
	for _, key := range keys {
		v, ok := values[key]
		if !ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		line, err := json.Marshal(Record{Key: key, UpdatedAt: now, Value: raw})
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", key, err)
		}
		lines = append(lines, line)
	}
	return WriteJSONL(NamespacePath(b.dataDir, ns), lines)
}

// decodeValue unmarshals recs[key] into dst; a missing key leaves dst as is.
func decodeValue(recs map[string]Record, key string, dst any) error {
	rec, ok := recs[key]
	if !ok || len(rec.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(rec.Value, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
