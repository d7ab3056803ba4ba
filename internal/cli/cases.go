package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// caseFlags are the editable test case fields.
type caseFlags struct {
	id        string
	name      string
	priority  string
	caseType  string
	steps     string
	expected  string
	reference string
}

func (c *caseFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.id, "id", "", "display id (default: generated)")
	fs.StringVar(&c.name, "name", "", "test case name")
	fs.StringVar(&c.priority, "priority", "", "High, Medium or Low (default Medium)")
	fs.StringVar(&c.caseType, "type", "", "UI, e2e, Function or API (default UI)")
	fs.StringVar(&c.steps, "steps", "", "test steps")
	fs.StringVar(&c.expected, "expected", "", "expected result")
	fs.StringVar(&c.reference, "reference", "", "reference or tags")
}

// apply copies the flags that were set onto tc.
func (c *caseFlags) apply(fs *pflag.FlagSet, tc types.TestCase) types.TestCase {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("id", &tc.ID, c.id)
	set("name", &tc.Name, c.name)
	set("steps", &tc.Steps, c.steps)
	set("expected", &tc.ExpectedResult, c.expected)
	set("reference", &tc.Reference, c.reference)
	if fs.Changed("priority") {
		tc.Priority = types.Priority(c.priority)
	}
	if fs.Changed("type") {
		tc.Type = types.CaseType(c.caseType)
	}
	return tc
}

func newCaseCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "case",
		Aliases: []string{"cases"},
		Short:   "Manage test cases",
	}

	var add caseFlags
	addCmd := &cobra.Command{
		Use:   "add <module> <scenario>",
		Short: "Add a test case to a scenario",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, sc, err := findModuleScenario(st, args[0], args[1])
				if err != nil {
					return err
				}
				tc, created, err := st.CreateTestCase(m.ID, sc.ID, add.apply(cmd.Flags(), types.TestCase{}))
				if err != nil || !created {
					return a.done(created, err, "scenario")
				}
				return a.emit(tc, func() { fmt.Fprintf(a.out, "Created test case %s: %s\n", tc.ID, tc.Name) })
			})
		},
	}
	add.register(addCmd.Flags())
	_ = addCmd.MarkFlagRequired("name")
	cmd.AddCommand(addCmd)

	var upd caseFlags
	updateCmd := &cobra.Command{
		Use:   "update <case>",
		Short: "Update the fields of a test case given by key or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				cv, err := findCase(st, args[0])
				if err != nil {
					return err
				}
				changed, err := st.UpdateTestCase(cv.ModuleID, cv.ScenarioID, cv.Key, upd.apply(cmd.Flags(), cv.TestCase))
				return a.done(changed, err, "test case updated")
			})
		},
	}
	upd.register(updateCmd.Flags())
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <case>",
		Short: "Delete a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				cv, err := findCase(st, args[0])
				if err != nil {
					return err
				}
				changed, err := st.DeleteTestCase(cv.ModuleID, cv.ScenarioID, cv.Key)
				return a.done(changed, err, "test case deleted")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "duplicate <case>",
		Short: "Copy a test case next to the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				cv, err := findCase(st, args[0])
				if err != nil {
					return err
				}
				tc, created, err := st.DuplicateTestCase(cv.ModuleID, cv.ScenarioID, cv.Key)
				if err != nil || !created {
					return a.done(created, err, "test case")
				}
				return a.emit(tc, func() { fmt.Fprintf(a.out, "Created test case %s: %s\n", tc.ID, tc.Name) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <case>",
		Short: "Show a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				cv, err := findCase(st, args[0])
				if err != nil {
					return err
				}
				return a.emit(cv, func() { printCase(a, cv) })
			})
		},
	})

	var query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases, optionally filtered by name or id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				cases := st.Search(query)
				if cases == nil {
					cases = []types.CaseView{}
				}
				return a.emit(cases, func() { printCases(a, cases) })
			})
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive filter on name or id")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "regen-ids",
		Short: "Relabel every test case TC_001, TC_002, ... in tree order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				n, err := st.RegenerateCaseIDs()
				return a.done(n > 0, err, fmt.Sprintf("relabeled %d test cases", n))
			})
		},
	})
	return cmd
}

func printCases(a *app, cases []types.CaseView) {
	if len(cases) == 0 {
		fmt.Fprintln(a.out, "No test cases.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODULE\tSCENARIO\tPRIORITY\tTYPE")
	for _, c := range cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.ModuleName, c.ScenarioName, c.Priority, c.Type)
	}
	w.Flush()
}

func printCase(a *app, c types.CaseView) {
	label := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(a.out, "%s %s\n", color.YellowString(c.ID), label(c.Name))
	fmt.Fprintf(a.out, "  %s %s\n", label("Key:"), c.Key)
	fmt.Fprintf(a.out, "  %s %s / %s\n", label("Location:"), c.ModuleName, c.ScenarioName)
	fmt.Fprintf(a.out, "  %s %s   %s %s   %s %s\n", label("Priority:"), c.Priority, label("Type:"), c.Type, label("Status:"), c.Status)
	if c.Steps != "" {
		fmt.Fprintf(a.out, "  %s\n    %s\n", label("Steps:"), c.Steps)
	}
	if c.ExpectedResult != "" {
		fmt.Fprintf(a.out, "  %s\n    %s\n", label("Expected:"), c.ExpectedResult)
	}
	if c.Reference != "" {
		fmt.Fprintf(a.out, "  %s %s\n", label("Reference:"), c.Reference)
	}
}
