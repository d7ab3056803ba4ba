package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/internal/evidence"
	"github.com/besttest/besttest/internal/report"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

func findResult(st *store.Store, id string) (types.TestResult, error) {
	r, ok := st.Result(id)
	if !ok {
		return r, fmt.Errorf("result %q: %w", id, types.ErrNotFound)
	}
	return r, nil
}

func newResultCmd(f *rootFlags) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:     "result",
		Aliases: []string{"results"},
		Short:   "Inspect recorded execution results",
	}
	cmd.PersistentFlags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				results := st.Results()
				if a.flags.jsonMode {
					return a.printJSON(results)
				}
				if len(results) == 0 {
					fmt.Fprintln(a.out, "No results.")
					return nil
				}
				return report.NewRenderer(a.out, plain).Render(report.ResultsMarkdown(results))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <result>",
		Short: "Show a result with its per-case verdicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				r, err := findResult(st, args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(r)
				}
				return report.NewRenderer(a.out, plain).Render(report.ResultMarkdown(r))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <result> <name>",
		Short: "Rename a result; its counts are unchanged",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				changed, err := st.RenameTestResult(args[0], args[1])
				return a.done(changed, err, "result renamed")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <result>",
		Short: "Delete a result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				changed, err := st.DeleteTestResult(args[0])
				return a.done(changed, err, "result deleted")
			})
		},
	})
	cmd.AddCommand(newEvidenceCmd(f))
	return cmd
}

func newEvidenceCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Browse and delete run screenshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [result]",
		Short: "List evidence files, or the screenshots attached to one result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
					r, err := findResult(st, args[0])
					if err != nil {
						return err
					}
					ev, err := a.evidence()
					if err != nil {
						return err
					}
					attached, err := ev.ForResult(r)
					if err != nil {
						return sysErr(err)
					}
					return a.emit(attached, func() { printAttachments(a, attached) })
				})
			}
			return f.withApp(cmd, func(a *app) error {
				ev, err := a.evidence()
				if err != nil {
					return err
				}
				files, err := ev.List()
				if err != nil {
					return sysErr(err)
				}
				return a.emit(files, func() { printEvidence(a, ev.Root(), files) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <file>",
		Short: "Delete an evidence file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				ev, err := a.evidence()
				if err != nil {
					return err
				}
				changed, err := ev.Delete(args[0])
				if errors.Is(err, evidence.ErrInvalidPath) {
					return userErrf("%w", err)
				}
				return a.done(changed, err, "evidence file deleted")
			})
		},
	})
	return cmd
}

func printEvidence(a *app, root string, files []evidence.File) {
	if len(files) == 0 {
		fmt.Fprintf(a.out, "No evidence in %s.\n", root)
		return
	}
	now := time.Now()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSIZE\tCAPTURED")
	for _, file := range files {
		fmt.Fprintf(w, "%s\t%d\t%s\n", file.Path, file.Size, report.Age(now, file.CreatedAt))
	}
	w.Flush()
}

func printAttachments(a *app, attached []evidence.Attachment) {
	if len(attached) == 0 {
		fmt.Fprintln(a.out, "No screenshots attached.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tFILE\tSIZE")
	for _, at := range attached {
		size := color.HiBlackString("missing")
		if at.File != nil {
			size = fmt.Sprint(at.File.Size)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", at.CaseID, at.Name, size)
	}
	w.Flush()
}

func newSummaryCmd(f *rootFlags) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show verdict totals across all results of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, p types.Project, st *store.Store) error {
				sum := aggregate.Summarize(st.Snapshot())
				if a.flags.jsonMode {
					return a.printJSON(sum)
				}
				return report.NewRenderer(a.out, plain).Render(report.SummaryMarkdown(p.Name, sum))
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")
	return cmd
}
