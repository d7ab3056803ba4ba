package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/besttest/besttest/internal/config"
)

func newConfigCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with API keys masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := f.loadSettings()
			if err != nil {
				return err
			}
			masked := s.Masked()
			if f.jsonMode {
				a := &app{flags: f, out: cmd.OutOrStdout()}
				return a.printJSON(masked)
			}
			data, err := yaml.Marshal(&masked)
			if err != nil {
				return sysErr(err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <dev|uat|prod>",
		Short: "Select the active environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, configDir, err := f.loadSettings()
			if err != nil {
				return err
			}
			name := strings.ToLower(args[0])
			if _, err := s.Environments.Get(name); err != nil {
				return userErrf("%w", err)
			}
			s.ActiveEnv = name
			if err := s.Validate(); err != nil {
				return userErrf("%w", err)
			}
			if err := config.Save(configDir, s); err != nil {
				return sysErr(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓"), "active environment:", name)
			return nil
		},
	})
	return cmd
}
