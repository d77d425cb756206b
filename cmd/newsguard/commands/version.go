package commands

import (
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/version"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
			return nil
		},
	}
}
