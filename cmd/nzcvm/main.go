package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nzcvm/nzcvm-webapp/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "nzcvm",
	Short: "Operator tools for the NZ community velocity model webapp",
	Long: `nzcvm writes and checks velocity model configuration files, estimates
generation cost, submits requests to a backend, and builds the basin overlays
the map page displays.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(logLevel, "console")
		if err != nil {
			return err
		}
		logging.SetRoot(log)
		cmd.SetContext(logging.Context(cmd.Context(), log))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
