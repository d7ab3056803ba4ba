package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/besttest/besttest/internal/report"
	"github.com/besttest/besttest/pkg/types"
)

func newProjectCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				p, err := a.catalog.CreateProject(args[0])
				if err != nil {
					return err
				}
				return a.emit(p, func() {
					fmt.Fprintf(a.out, "Created project %s: %s\n", p.Name, p.ID)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects with their case counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				projects, err := a.catalog.Projects()
				if err != nil {
					return sysErr(err)
				}
				return a.emit(projects, func() { printProjects(a, projects) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <project> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				p, err := a.project(args[0])
				if err != nil {
					return err
				}
				changed, err := a.catalog.RenameProject(p.ID, args[1])
				return a.done(changed, err, "project renamed")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <project> <Active|Archived>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				p, err := a.project(args[0])
				if err != nil {
					return err
				}
				changed, err := a.catalog.SetProjectStatus(p.ID, args[1])
				return a.done(changed, err, "project status set")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				p, err := a.project(args[0])
				if err != nil {
					return err
				}
				changed, err := a.catalog.DeleteProject(p.ID)
				return a.done(changed, err, "project deleted")
			})
		},
	})
	return cmd
}

func printProjects(a *app, projects []types.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(a.out, "No projects.")
		return
	}
	now := time.Now()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCASES\tLAST TESTED")
	for _, p := range projects {
		last := "never"
		if p.LastTested != nil {
			last = report.Age(now, *p.LastTested)
		}
		status := p.Status
		if status == types.ProjectStatusArchived {
			status = color.HiBlackString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, status, p.CaseCount, last)
	}
	w.Flush()
}
