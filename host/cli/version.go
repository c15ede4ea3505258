package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"serialsh/core"
	"serialsh/protocol"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "serialsh-host %s\n", protocol.Version)
		fmt.Fprintf(out, "  branch: %s\n", core.Branch)
		fmt.Fprintf(out, "  hash:   %s\n", core.Hash)
		fmt.Fprintf(out, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
