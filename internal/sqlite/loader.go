package sqlite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/besttest/besttest/internal/jsonl"
	"github.com/besttest/besttest/pkg/types"
)

// ImportJSONL copies every namespace file found in dir (as written by the
// jsonl backend) into the database. Loading is transactional: either every
// namespace is imported or nothing changes. Malformed lines and unknown keys
// are skipped. It returns the number of namespaces imported.
func (b *Backend) ImportJSONL(dir string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, types.ErrRepositoryClosed
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		ns := strings.TrimSuffix(name, ".jsonl")

		lines, err := jsonl.ReadJSONL(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		payloads := make(map[string]string)
		for key, rec := range jsonl.DecodeRecords(lines) {
			if !knownKey(ns, key) || !json.Valid(rec.Value) {
				continue
			}
			payloads[key] = string(rec.Value)
		}
		if len(payloads) == 0 {
			continue
		}
		if err := upsertAll(tx, b.dialect.upsert, ns, payloads); err != nil {
			return 0, fmt.Errorf("loading %s: %w", name, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	b.logger.Info("jsonl import finished", "dir", dir, "namespaces", imported, "at", time.Now().UTC())
	return imported, nil
}

// knownKey reports whether key belongs in namespace ns.
func knownKey(ns, key string) bool {
	if ns == types.GlobalNamespace {
		return key == types.KeyProjects
	}
	for _, k := range types.StandardKeys {
		if k == key {
			return true
		}
	}
	return false
}
