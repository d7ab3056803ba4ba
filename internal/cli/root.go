// Package cli implements the besttest command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/config"
	"github.com/besttest/besttest/internal/evidence"
	"github.com/besttest/besttest/internal/paths"
	"github.com/besttest/besttest/internal/storage"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// EnvProject selects the project when --project is not given.
const EnvProject = "BESTTEST_PROJECT"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	project   string
	jsonMode  bool
	verbose   bool
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func sysErr(err error) error { return &exitError{code: exitSysError, err: err} }

func userErrf(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// exitCode maps err to a process exit code. Persistence failures are
// system errors; everything else is the user's.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrPersist) {
		return exitSysError
	}
	return exitUserError
}

// NewRootCmd creates the top-level "besttest" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "besttest",
		Short: "Manage test cases, test plans and execution results",
		Long: "besttest keeps a per-project hierarchy of modules, scenarios and test cases,\n" +
			"groups cases into test plans, and records execution results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&f.dataDir, "data-dir", "", "data directory (default: $(CWD)/.besttest-db)")
	pf.StringVar(&f.backend, "backend", "", "storage backend: sqlite, mysql, jsonl or memory (default from config)")
	pf.StringVarP(&f.project, "project", "p", "", "project id or name (default: $"+EnvProject+")")
	pf.BoolVar(&f.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(f),
		newConfigCmd(f),
		newProjectCmd(f),
		newModuleCmd(f),
		newScenarioCmd(f),
		newCaseCmd(f),
		newPlanCmd(f),
		newRunCmd(f),
		newResultCmd(f),
		newSummaryCmd(f),
		newImportCmd(f),
		newMigrateCmd(f),
		newServeCmd(f),
		newResetCmd(f),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(exitCode(err))
	}
}

// app is the state shared by a single command invocation.
type app struct {
	flags     *rootFlags
	settings  config.Settings
	configDir string
	dataDir   string
	logger    *slog.Logger
	repo      types.Repository
	catalog   *store.Catalog
	out       io.Writer
	errOut    io.Writer
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadSettings resolves the config directory and loads config.yaml, applying
// the --backend override.
func (f *rootFlags) loadSettings() (config.Settings, string, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return config.Settings{}, "", sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := config.Load(configDir)
	if err != nil {
		return config.Settings{}, "", userErrf("%w", err)
	}
	if f.backend != "" {
		s.Backend = f.backend
	}
	return s, configDir, nil
}

// open loads the configuration and opens the repository. The caller must
// close the returned app.
func (f *rootFlags) open(cmd *cobra.Command) (*app, error) {
	logger := newLogger(cmd.ErrOrStderr(), f.verbose)
	slog.SetDefault(logger)

	s, configDir, err := f.loadSettings()
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, s.DataDir)
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := s.Store(dataDir)
	if err := cfg.Validate(); err != nil {
		return nil, userErrf("%w", err)
	}
	repo, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, sysErr(fmt.Errorf("open storage: %w", err))
	}
	logger.Debug("storage opened", "backend", cfg.Backend, "data_dir", dataDir)

	return &app{
		flags:     f,
		settings:  s,
		configDir: configDir,
		dataDir:   dataDir,
		logger:    logger,
		repo:      repo,
		catalog:   store.NewCatalog(repo, logger),
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
	}, nil
}

// evidence opens the evidence directory of the configured data dir.
func (a *app) evidence() (*evidence.Dir, error) {
	d, err := evidence.Open(a.settings.EvidencePath(a.dataDir))
	if err != nil {
		return nil, sysErr(err)
	}
	return d, nil
}

// Close releases the repository.
func (a *app) Close() error {
	return a.repo.Close()
}

// withApp opens the app, runs fn and closes it.
func (f *rootFlags) withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := f.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withStore opens the store of the selected project.
func (f *rootFlags) withStore(cmd *cobra.Command, fn func(a *app, p types.Project, st *store.Store) error) error {
	return f.withApp(cmd, func(a *app) error {
		p, err := a.project(f.project)
		if err != nil {
			return err
		}
		st, err := a.catalog.OpenStore(p.ID, store.WithLogger(a.logger))
		if err != nil {
			return err
		}
		return fn(a, p, st)
	})
}

// project finds a project by id, then by case-insensitive name. An empty ref
// falls back to $BESTTEST_PROJECT.
func (a *app) project(ref string) (types.Project, error) {
	if ref == "" {
		ref = os.Getenv(EnvProject)
	}
	if ref == "" {
		return types.Project{}, userErrf("no project selected: pass --project or set %s", EnvProject)
	}
	projects, err := a.catalog.Projects()
	if err != nil {
		return types.Project{}, sysErr(err)
	}
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return types.Project{}, fmt.Errorf("project %q: %w", ref, types.ErrNotFound)
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes v as JSON in --json mode and calls human otherwise.
func (a *app) emit(v any, human func()) error {
	if a.flags.jsonMode {
		return a.printJSON(v)
	}
	human()
	return nil
}

// done reports the outcome of a soft-fail mutation. A no-op is reported on
// stderr and is not an error.
func (a *app) done(changed bool, err error, what string) error {
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(a.errOut, color.YellowString("nothing changed: %s not found", what))
		if a.flags.jsonMode {
			return a.printJSON(map[string]bool{"changed": false})
		}
		return nil
	}
	return a.emit(map[string]bool{"changed": true}, func() {
		fmt.Fprintln(a.out, color.GreenString("✓"), what)
	})
}
