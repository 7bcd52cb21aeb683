// File: cmd/presets.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/contentheight/internal/estimator"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "Prints the named estimation presets resolved against the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := map[string]estimator.Config{"defaults": estimator.DefaultConfig()}
			for name, cfg := range estimator.Presets() {
				out[name] = cfg
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
