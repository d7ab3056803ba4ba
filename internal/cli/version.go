package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/besttest/besttest"

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the besttest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "besttest v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
