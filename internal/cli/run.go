package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/api"
	"github.com/besttest/besttest/internal/config"
	"github.com/besttest/besttest/internal/executor"
	"github.com/besttest/besttest/internal/session"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// newExecutor builds the executor selected by the settings.
func newExecutor(s config.Settings, seed int64) executor.Executor {
	if s.Executor == config.ExecutorHTTP {
		env := s.Active()
		h := executor.NewHTTP(env.URL, env.APIKey, 0)
		h.StatusPath = s.StatusPath
		h.MessagePath = s.MessagePath
		return h
	}
	return executor.NewSimulated(s.PassRatio, 0, seed)
}

// parseVerdictFlag splits "<case>=<verdict>[:<comment>]".
func parseVerdictFlag(raw string) (ref string, v types.Verdict, comment string, err error) {
	ref, rest, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(ref) == "" {
		return "", "", "", userErrf("verdict %q: want <case>=<verdict>[:<comment>]", raw)
	}
	result, comment, _ := strings.Cut(rest, ":")
	v, err = types.ParseVerdict(result)
	if err != nil {
		return "", "", "", fmt.Errorf("verdict %q: %w", raw, err)
	}
	return strings.TrimSpace(ref), v, strings.TrimSpace(comment), nil
}

// parseEvidenceFlag splits "<case>=<file>[,<file>...]".
func parseEvidenceFlag(raw string) (ref string, files []string, err error) {
	ref, rest, ok := strings.Cut(raw, "=")
	if ok {
		for _, name := range strings.Split(rest, ",") {
			if name = strings.TrimSpace(name); name != "" {
				files = append(files, name)
			}
		}
	}
	if !ok || strings.TrimSpace(ref) == "" || len(files) == 0 {
		return "", nil, userErrf("evidence %q: want <case>=<file>[,<file>...]", raw)
	}
	return strings.TrimSpace(ref), files, nil
}

func newRunCmd(f *rootFlags) *cobra.Command {
	var (
		planID   string
		auto     bool
		seed     int64
		verdicts []string
		shots    []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a plan (or every test case) and record the result",
		Long: "Start an execution session over the plan's live test cases, or over every\n" +
			"test case when no plan is given. Verdicts come from --verdict flags or, with\n" +
			"--auto, from the configured executor. Cases left without a verdict are\n" +
			"recorded as Not Tested.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				sess, dangling, err := session.Begin(st, planID)
				if err != nil {
					return err
				}
				logDangling(a, planID, dangling)

				for _, raw := range verdicts {
					ref, v, comment, err := parseVerdictFlag(raw)
					if err != nil {
						return err
					}
					cv, err := findCase(st, ref)
					if err != nil {
						return err
					}
					if err := sess.SetVerdict(cv.Key, v, comment); err != nil {
						return userErrf("%s is not part of this run: %w", ref, err)
					}
				}
				for _, raw := range shots {
					ref, files, err := parseEvidenceFlag(raw)
					if err != nil {
						return err
					}
					cv, err := findCase(st, ref)
					if err != nil {
						return err
					}
					if err := sess.SetEvidence(cv.Key, files); err != nil {
						return userErrf("%s is not part of this run: %w", ref, err)
					}
				}

				if auto {
					if seed == 0 {
						seed = time.Now().UnixNano()
					}
					if err := runAuto(cmd, a, sess, newExecutor(a.settings, seed)); err != nil {
						return err
					}
				}

				r, err := sess.Finish(st)
				if err != nil {
					return err
				}
				return a.emit(r, func() { printRunSummary(a, r) })
			})
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (default: every test case, recorded as a manual run)")
	cmd.Flags().BoolVar(&auto, "auto", false, "execute every case with the configured executor")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the simulated executor (default: time based)")
	cmd.Flags().StringArrayVar(&verdicts, "verdict", nil, "<case>=<passed|failed|skipped|not-tested>[:<comment>] (repeatable)")
	cmd.Flags().StringArrayVar(&shots, "evidence", nil, "<case>=<file>[,<file>] screenshots relative to the evidence dir (repeatable)")
	return cmd
}

// logDangling warns about plan references to deleted cases.
func logDangling(a *app, planID string, dangling []types.CaseRef) {
	if len(dangling) == 0 {
		return
	}
	ids := make([]string, len(dangling))
	for i, ref := range dangling {
		ids[i] = ref.CaseID
	}
	a.logger.Warn("plan references deleted test cases", "plan", planID, "cases", strings.Join(ids, ","))
	fmt.Fprintln(a.errOut, color.YellowString("skipping %d deleted test cases", len(dangling)))
}

// runAuto executes every case with exec, drawing a progress bar on stderr.
func runAuto(cmd *cobra.Command, a *app, sess *session.Session, exec executor.Executor) error {
	total := len(sess.Cases())
	if total == 0 {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Running: ")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(a.errOut),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(a.errOut, "\n")
		}),
	)
	progress := func(done, total int, c types.CaseView, out executor.Outcome) {
		bar.Describe(color.CyanString("Running: ") + c.ID)
		_ = bar.Add(1)
	}
	return sess.RunAll(cmd.Context(), exec, progress, a.logger)
}

func printRunSummary(a *app, r types.TestResult) {
	fmt.Fprintf(a.out, "Recorded %s for %s\n", r.ID, r.PlanName)
	fmt.Fprintf(a.out, "  %s  %s  %s  %s  (total %d)\n",
		color.GreenString("passed %d", r.Passed),
		color.RedString("failed %d", r.Failed),
		color.YellowString("skipped %d", r.Skipped),
		color.HiBlackString("not tested %d", r.NotTested),
		r.Total)
}

func newServeCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				if addr == "" {
					addr = a.settings.Listen
				}
				ev, err := a.evidence()
				if err != nil {
					return err
				}
				srv := api.NewServer(a.catalog, api.Options{
					Addr:     addr,
					Executor: newExecutor(a.settings, time.Now().UnixNano()),
					Logger:   a.logger,
					Evidence: ev,
				})
				fmt.Fprintf(a.errOut, "besttest API on http://%s\n", addr)
				if err := srv.Run(cmd.Context()); err != nil {
					return sysErr(err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newResetCmd(f *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every project and all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userErrf("reset deletes all data; pass --yes to confirm")
			}
			return f.withApp(cmd, func(a *app) error {
				n, err := a.catalog.Reset()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf("removed %d projects", n))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
