// Command agentctl is a local demo/integration-test harness: it launches
// one or more GenericAgentRuntime worker processes as Docker containers
// against a given registry URL, grounded on the teacher's own
// container-per-agent lifecycle but trimmed to the launch/list/stop/rm
// operations a multi-agent network demo needs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentctl",
		Short: "launch and manage GenericAgentRuntime worker containers",
	}
	root.AddCommand(launchCmd())
	root.AddCommand(listCmd())
	root.AddCommand(stopCmd())
	root.AddCommand(rmCmd())
	return root
}
