package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Create the configuration directory with a default config.yaml, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withApp(cmd, func(a *app) error {
				if _, err := a.catalog.Projects(); err != nil {
					return sysErr(fmt.Errorf("initialize storage: %w", err))
				}
				return a.emit(map[string]string{
					"config":  filepath.Join(a.configDir, "config.yaml"),
					"dataDir": a.dataDir,
					"backend": a.settings.Backend,
				}, func() {
					fmt.Fprintf(a.out, "besttest initialized (%s backend)\n", a.settings.Backend)
					fmt.Fprintf(a.out, "  config: %s\n", filepath.Join(a.configDir, "config.yaml"))
					fmt.Fprintf(a.out, "  data:   %s\n", a.dataDir)
				})
			})
		},
	}
}
