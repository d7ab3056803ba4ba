package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// planRow is a plan with the completion of its latest result.
type planRow struct {
	types.TestPlan
	Completion float64 `json:"completion"`
}

// caseKeys resolves case refs (keys or display ids) to keys.
func caseKeys(st *store.Store, refs []string) ([]string, error) {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		cv, err := findCase(st, ref)
		if err != nil {
			return nil, err
		}
		keys = append(keys, cv.Key)
	}
	return keys, nil
}

func completion(st *store.Store, p types.TestPlan) float64 {
	latest, ok := st.LatestResultForPlan(p.ID)
	if !ok {
		return 0
	}
	return aggregate.PlanCompletion(p, &latest)
}

func findPlan(st *store.Store, id string) (types.TestPlan, error) {
	p, ok := st.Plan(id)
	if !ok {
		return p, fmt.Errorf("plan %q: %w", id, types.ErrNotFound)
	}
	return p, nil
}

func newPlanCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"plans"},
		Short:   "Manage test plans",
	}

	var createRefs []string
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a test plan from test cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				keys, err := caseKeys(st, createRefs)
				if err != nil {
					return err
				}
				p, err := st.CreateTestPlan(args[0], keys)
				if err != nil {
					return err
				}
				return a.emit(p, func() {
					fmt.Fprintf(a.out, "Created plan %s: %s (%d test cases)\n", p.Title, p.ID, len(p.TestCases))
				})
			})
		},
	}
	createCmd.Flags().StringSliceVarP(&createRefs, "case", "c", nil, "test case key or id (repeatable)")
	cmd.AddCommand(createCmd)

	var (
		updTitle string
		updRefs  []string
	)
	updateCmd := &cobra.Command{
		Use:   "update <plan>",
		Short: "Change a plan's title or case list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				p, err := findPlan(st, args[0])
				if err != nil {
					return err
				}
				title, keys := p.Title, p.Keys()
				if cmd.Flags().Changed("title") {
					title = updTitle
				}
				if cmd.Flags().Changed("case") {
					if keys, err = caseKeys(st, updRefs); err != nil {
						return err
					}
				}
				changed, err := st.UpdateTestPlan(p.ID, title, keys)
				return a.done(changed, err, "plan updated")
			})
		},
	}
	updateCmd.Flags().StringVar(&updTitle, "title", "", "new title")
	updateCmd.Flags().StringSliceVarP(&updRefs, "case", "c", nil, "replacement case list (repeatable)")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <plan>",
		Short: "Delete a plan; its results are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				changed, err := st.DeleteTestPlan(args[0])
				return a.done(changed, err, "plan deleted")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "duplicate <plan>",
		Short: "Copy a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				p, created, err := st.DuplicateTestPlan(args[0])
				if err != nil || !created {
					return a.done(created, err, "plan")
				}
				return a.emit(p, func() { fmt.Fprintf(a.out, "Created plan %s: %s\n", p.Title, p.ID) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plans with the completion of their latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				plans := st.Plans()
				rows := make([]planRow, 0, len(plans))
				for _, p := range plans {
					rows = append(rows, planRow{TestPlan: p, Completion: completion(st, p)})
				}
				return a.emit(rows, func() { printPlans(a, rows) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <plan>",
		Short: "Show a plan's test cases, including references to deleted cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				p, err := findPlan(st, args[0])
				if err != nil {
					return err
				}
				live, dangling, err := st.ResolvePlan(p.ID)
				if err != nil {
					return err
				}
				view := struct {
					planRow
					Cases    []types.CaseView `json:"cases"`
					Dangling []types.CaseRef  `json:"dangling"`
				}{planRow{p, completion(st, p)}, live, dangling}
				return a.emit(view, func() {
					fmt.Fprintf(a.out, "%s %s  %.2f%% complete\n", color.New(color.Bold).Sprint(p.Title), color.HiBlackString(p.ID), view.Completion)
					printCases(a, live)
					for _, ref := range dangling {
						fmt.Fprintf(a.out, "%s  %s  %s\n", ref.CaseID, ref.Name, color.RedString("(deleted case)"))
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "completion <plan>",
		Short: "Print the completion of a plan's latest run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				p, err := findPlan(st, args[0])
				if err != nil {
					return err
				}
				c := completion(st, p)
				return a.emit(map[string]any{"planId": p.ID, "completion": c}, func() {
					fmt.Fprintf(a.out, "%.2f%%\n", c)
				})
			})
		},
	})
	return cmd
}

func printPlans(a *app, rows []planRow) {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No plans.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCASES\tCOMPLETION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f%%\n", r.ID, r.Title, len(r.TestCases), r.Completion)
	}
	w.Flush()
}
