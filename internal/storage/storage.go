// Package storage opens the Repository selected by a types.Config.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/besttest/besttest/internal/jsonl"
	"github.com/besttest/besttest/internal/memory"
	"github.com/besttest/besttest/internal/sqlite"
	"github.com/besttest/besttest/pkg/types"
)

// Open validates cfg and returns the matching backend.
func Open(cfg types.Config, logger *slog.Logger) (types.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}
	switch cfg.Backend {
	case types.BackendSQLite, types.BackendMySQL:
		b, err := sqlite.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case types.BackendJSONL:
		b, err := jsonl.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	case types.BackendMemory:
		return memory.New(), nil
	}
	return nil, types.ErrBackendUnknown
}
