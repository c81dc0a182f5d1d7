package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/client"
	"github.com/nzcvm/nzcvm-webapp/internal/logging"
)

var submitFlags struct {
	server string
	out    string
	token  string
}

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Generate a velocity model on a backend and save the archive",
	Long: `Submit a configuration file to the backend run endpoint and write the returned
zip archive. Requests estimated to run over --max-runtime are refused before
anything is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the model versions a backend offers",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitFlags.server, "server", "http://localhost:5000", "backend base URL")
	f.StringVarP(&submitFlags.out, "out", "o", "nzcvm_output.zip", "archive to write")
	f.StringVar(&submitFlags.token, "token", os.Getenv("NZCVM_TOKEN"), "bearer token for the run endpoint")
	addPolicyFlags(submitCmd)

	versionsCmd.Flags().StringVar(&submitFlags.server, "server", "http://localhost:5000", "backend base URL")

	rootCmd.AddCommand(submitCmd, versionsCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	rec, err := readConfig(args[0])
	if err != nil {
		return err
	}
	c := client.New(submitFlags.server,
		client.WithToken(submitFlags.token),
		client.WithRuntimeModel(runtimeModel()),
		client.WithMaxRuntimeSeconds(policy.maxRuntime),
	)

	f, err := os.Create(submitFlags.out)
	if err != nil {
		return err
	}
	n, err := c.Submit(cmd.Context(), rec, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(submitFlags.out)
		var refused *client.RuntimeRefusedError
		if errors.As(err, &refused) {
			logging.From(cmd.Context()).Info("submission refused locally", zap.Float64("estimatedSeconds", refused.EstimatedSeconds))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", submitFlags.out, n)
	return nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	versions, err := client.New(submitFlags.server).ModelVersions(cmd.Context())
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", v.Version, v.DisplayVersion)
	}
	return nil
}
