// Package sqlite implements the SQL-backed Repository. The embedded SQLite
// engine is the default; the same key-value layout also runs on MySQL.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/besttest/besttest/pkg/types"
)

// DBFile is the database file created inside DataDir.
const DBFile = "besttest.db"

// sqlitePragmas enable WAL and a generous busy timeout so the CLI and a
// running server can share one database file.
const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Backend implements types.Repository on top of database/sql.
type Backend struct {
	mu      sync.RWMutex
	db      *sql.DB
	dialect dialect
	closed  bool
	logger  *slog.Logger
}

var _ types.Repository = (*Backend)(nil)

// Open connects to the database described by cfg and creates the schema if
// it does not exist. cfg.Backend selects the dialect: sqlite (file in
// DataDir) or mysql (cfg.DSN).
func Open(cfg types.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		d   dialect
		dsn string
	)
	switch cfg.Backend {
	case types.BackendSQLite:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		d = sqliteDialect
		dsn = filepath.Join(dataDir, DBFile) + sqlitePragmas
	case types.BackendMySQL:
		if cfg.DSN == "" {
			return nil, types.ErrDSNRequired
		}
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		parsed.MultiStatements = false
		d = mysqlDialect
		dsn = parsed.FormatDSN()
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.Exec(d.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Debug("repository opened", "backend", cfg.Backend)
	return &Backend{db: db, dialect: d, logger: logger}, nil
}

// LoadProjects returns the project list from the global namespace.
func (b *Backend) LoadProjects() ([]types.Project, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, types.ErrRepositoryClosed
	}

	rows, err := b.readNamespace(types.GlobalNamespace)
	if err != nil {
		return nil, err
	}
	projects := []types.Project{}
	if raw, ok := rows[types.KeyProjects]; ok {
		if err := json.Unmarshal([]byte(raw), &projects); err != nil {
			return nil, fmt.Errorf("decode %s: %w", types.KeyProjects, err)
		}
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

	rows, err := b.readNamespace(projectID)
	if err != nil {
		return types.State{}, err
	}
	var st types.State
	targets := map[string]any{
		types.KeyModules: &st.Modules,
		types.KeyPlans:   &st.Plans,
		types.KeyResults: &st.Results,
	}
	for key, dst := range targets {
		raw, ok := rows[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return types.State{}, fmt.Errorf("decode %s/%s: %w", projectID, key, err)
		}
	}
	return st, nil
}

// Save writes the three project keys in a single transaction.
func (b *Backend) Save(projectID string, st types.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	if projectID == "" {
		return types.ErrInvalidID
	}
	return b.writeNamespace(projectID, map[string]any{
		types.KeyModules: nonNil(st.Modules),
		types.KeyPlans:   nonNil(st.Plans),
		types.KeyResults: nonNil(st.Results),
	})
}

// Purge deletes every row stored under projectID.
func (b *Backend) Purge(projectID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrRepositoryClosed
	}
	if _, err := b.db.Exec(deleteNamespace, projectID); err != nil {
		return fmt.Errorf("purge %s: %w", projectID, err)
	}
	b.logger.Debug("namespace purged", "namespace", projectID)
	return nil
}

// Close closes the database. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *Backend) readNamespace(ns string) (map[string]string, error) {
	rows, err := b.db.Query(selectNamespace, ns)
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", ns, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan namespace %s: %w", ns, err)
		}
		out[key] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate namespace %s: %w", ns, err)
	}
	return out, nil
}

// writeNamespace upserts every value in one transaction. A failure rolls
// back so the previously stored rows remain.
func (b *Backend) writeNamespace(ns string, values map[string]any) error {
	payloads := make(map[string]string, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		payloads[key] = string(raw)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAll(tx, b.dialect.upsert, ns, payloads); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", ns, err)
	}
	b.logger.Debug("namespace saved", "namespace", ns, "keys", len(payloads))
	return nil
}

func upsertAll(tx *sql.Tx, upsert, ns string, payloads map[string]string) error {
	stmt, err := tx.Prepare(upsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, payload := range payloads {
		if _, err := stmt.Exec(ns, key, payload, now); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", ns, key, err)
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
