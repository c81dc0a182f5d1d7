package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

var policy struct {
	intercept  float64
	perPoint   float64
	maxRuntime float64
}

func addPolicyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&policy.intercept, "runtime-intercept", geodesy.DefaultRuntimeModel.InterceptSeconds, "fixed generation overhead in seconds")
	f.Float64Var(&policy.perPoint, "runtime-per-point", geodesy.DefaultRuntimeModel.SecondsPerPoint, "generation seconds per grid point")
	f.Float64Var(&policy.maxRuntime, "max-runtime", 600, "longest generation the server accepts, in seconds")
}

func runtimeModel() geodesy.RuntimeModel {
	return geodesy.RuntimeModel{InterceptSeconds: policy.intercept, SecondsPerPoint: policy.perPoint}
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [file]",
	Short: "Estimate grid size and generation time for a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runEstimate,
}

func init() {
	addPolicyFlags(estimateCmd)
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	rec, err := readConfig(args[0])
	if err != nil {
		return err
	}
	g, ok := rec.Grid()
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "Total points: %s\n", geodesy.Placeholder)
		return fmt.Errorf("grid fields are not valid")
	}
	secs := runtimeModel().Estimate(g.TotalPoints)
	fmt.Fprintf(out, "Grid: nx=%d ny=%d nz=%d\n", g.NX, g.NY, g.NZ)
	fmt.Fprintf(out, "Total points: %s\n", geodesy.FormatTotal(g, true))
	fmt.Fprintf(out, "Estimated runtime: %.1f s\n", secs)
	if secs > policy.maxRuntime {
		fmt.Fprintf(out, "Over the %.0f s server limit: run the generator locally with this file.\n", policy.maxRuntime)
	}
	return nil
}
