package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagepub/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the imagepub version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imagepub %s\n", version.Current())
		},
	}
}
