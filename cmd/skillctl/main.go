// Command skillctl runs maintenance tasks against the skill matrix database:
// bulk imports from CSV files, the recertification report and the first
// administrator account.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "skillctl",
	Short:         "Skill matrix maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	actorUsername string
	jsonOutput    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&actorUsername, "as", "", "Username the command acts on behalf of")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine readable JSON instead of a table")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
