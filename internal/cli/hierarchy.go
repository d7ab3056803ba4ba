package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// findModule resolves a module by id, then by case-insensitive name.
func findModule(st *store.Store, ref string) (types.Module, error) {
	modules := st.Modules()
	for _, m := range modules {
		if m.ID == ref {
			return m, nil
		}
	}
	for _, m := range modules {
		if strings.EqualFold(m.Name, ref) {
			return m, nil
		}
	}
	return types.Module{}, fmt.Errorf("module %q: %w", ref, types.ErrNotFound)
}

// findScenario resolves a scenario of m by id, then by name.
func findScenario(m types.Module, ref string) (types.Scenario, error) {
	for _, sc := range m.Scenarios {
		if sc.ID == ref {
			return sc, nil
		}
	}
	for _, sc := range m.Scenarios {
		if strings.EqualFold(sc.Name, ref) {
			return sc, nil
		}
	}
	return types.Scenario{}, fmt.Errorf("scenario %q in %s: %w", ref, m.Name, types.ErrNotFound)
}

// findCase resolves a case by key or display id.
func findCase(st *store.Store, ref string) (types.CaseView, error) {
	cv, ok := st.LookupCase(ref)
	if !ok {
		return types.CaseView{}, fmt.Errorf("test case %q: %w", ref, types.ErrNotFound)
	}
	return cv, nil
}

func newModuleCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "module",
		Aliases: []string{"modules"},
		Short:   "Manage the modules of a project",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, err := st.CreateModule(args[0])
				if err != nil {
					return err
				}
				return a.emit(m, func() { fmt.Fprintf(a.out, "Created module %s: %s\n", m.Name, m.ID) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the module, scenario and test case tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, p types.Project, st *store.Store) error {
				modules := st.Modules()
				return a.emit(modules, func() { printTree(a, p, modules) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <module> <name>",
		Short: "Rename a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, err := findModule(st, args[0])
				if err != nil {
					return err
				}
				changed, err := st.RenameModule(m.ID, args[1])
				return a.done(changed, err, "module renamed")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <module>",
		Short: "Delete a module with its scenarios and test cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, err := findModule(st, args[0])
				if err != nil {
					return err
				}
				changed, err := st.DeleteModule(m.ID)
				return a.done(changed, err, fmt.Sprintf("module deleted (%d test cases)", m.CaseCount()))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <module>",
		Short: "Expand or collapse a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, err := findModule(st, args[0])
				if err != nil {
					return err
				}
				changed, err := st.ToggleModule(m.ID)
				return a.done(changed, err, "module toggled")
			})
		},
	})
	return cmd
}

func newScenarioCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenario",
		Aliases: []string{"scenarios"},
		Short:   "Manage the scenarios of a module",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <module> <name>",
		Short: "Add a scenario to a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, err := findModule(st, args[0])
				if err != nil {
					return err
				}
				sc, created, err := st.CreateScenario(m.ID, args[1])
				if err != nil || !created {
					return a.done(created, err, "module")
				}
				return a.emit(sc, func() { fmt.Fprintf(a.out, "Created scenario %s: %s\n", sc.Name, sc.ID) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <module> <scenario> <name>",
		Short: "Rename a scenario",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, sc, err := findModuleScenario(st, args[0], args[1])
				if err != nil {
					return err
				}
				changed, err := st.RenameScenario(m.ID, sc.ID, args[2])
				return a.done(changed, err, "scenario renamed")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <module> <scenario>",
		Short: "Delete a scenario with its test cases",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, sc, err := findModuleScenario(st, args[0], args[1])
				if err != nil {
					return err
				}
				changed, err := st.DeleteScenario(m.ID, sc.ID)
				return a.done(changed, err, fmt.Sprintf("scenario deleted (%d test cases)", len(sc.TestCases)))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <module> <scenario>",
		Short: "Expand or collapse a scenario",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(a *app, _ types.Project, st *store.Store) error {
				m, sc, err := findModuleScenario(st, args[0], args[1])
				if err != nil {
					return err
				}
				changed, err := st.ToggleScenario(m.ID, sc.ID)
				return a.done(changed, err, "scenario toggled")
			})
		},
	})
	return cmd
}

func findModuleScenario(st *store.Store, moduleRef, scenarioRef string) (types.Module, types.Scenario, error) {
	m, err := findModule(st, moduleRef)
	if err != nil {
		return m, types.Scenario{}, err
	}
	sc, err := findScenario(m, scenarioRef)
	return m, sc, err
}

func printTree(a *app, p types.Project, modules []types.Module) {
	fmt.Fprintln(a.out, color.New(color.Bold).Sprint(p.Name))
	if len(modules) == 0 {
		fmt.Fprintln(a.out, "  (no modules)")
		return
	}
	for _, m := range modules {
		marker := "▾"
		if !m.Expanded {
			marker = "▸"
		}
		fmt.Fprintf(a.out, "%s %s %s\n", marker, color.CyanString(m.Name), color.HiBlackString("(%d)", m.CaseCount()))
		if !m.Expanded {
			continue
		}
		for _, sc := range m.Scenarios {
			marker = "▾"
			if !sc.Expanded {
				marker = "▸"
			}
			fmt.Fprintf(a.out, "  %s %s %s\n", marker, sc.Name, color.HiBlackString("(%d)", len(sc.TestCases)))
			if !sc.Expanded {
				continue
			}
			for _, tc := range sc.TestCases {
				fmt.Fprintf(a.out, "      %s  %s  %s\n", color.YellowString(tc.ID), tc.Name, color.HiBlackString("[%s, %s]", tc.Priority, tc.Type))
			}
		}
	}
}
