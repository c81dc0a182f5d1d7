package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nzcvm/nzcvm-webapp/internal/outlines"
)

var outlinesFlags struct {
	path     string
	compress bool
}

var outlinesCmd = &cobra.Command{
	Use:   "outlines",
	Short: "Build and compare basin overlay files",
}

var outlinesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Combine basin outlines into one overlay per model version",
	Long: `Read every model_versions/*.yaml under --path, gather the outline files of
its basins from data/regional/<basin>/, and write
generated_basin_geojsons/<version>_basins.geojson.`,
	Args: cobra.NoArgs,
	RunE: runOutlinesGenerate,
}

var outlinesCompareCmd = &cobra.Command{
	Use:   "compare [file1] [file2]",
	Short: "Compare two overlay files",
	Args:  cobra.ExactArgs(2),
	RunE:  runOutlinesCompare,
}

func init() {
	outlinesGenerateCmd.Flags().StringVarP(&outlinesFlags.path, "path", "p", ".", "velocity modelling root directory")
	outlinesGenerateCmd.Flags().BoolVar(&outlinesFlags.compress, "compress", false, "gzip each overlay")

	outlinesCmd.AddCommand(outlinesGenerateCmd, outlinesCompareCmd)
	rootCmd.AddCommand(outlinesCmd)
}

func runOutlinesGenerate(cmd *cobra.Command, args []string) error {
	results, err := outlines.Generate(cmd.Context(), outlines.Layout{Root: outlinesFlags.path}, outlinesFlags.compress)
	out := cmd.OutOrStdout()
	ok := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  FAIL %s: %v\n", r.Version, r.Err)
			continue
		}
		ok++
		fmt.Fprintf(out, "  ok   %s: %d files -> %s\n", r.Version, r.Files, r.Output)
	}
	if len(results) > 0 {
		fmt.Fprintf(out, "Processed %d/%d model versions\n", ok, len(results))
	}
	return err
}

func runOutlinesCompare(cmd *cobra.Command, args []string) error {
	a, err := outlines.ReadCollection(args[0])
	if err != nil {
		return err
	}
	b, err := outlines.ReadCollection(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Comparing:\n  File 1: %s\n  File 2: %s\n\n", args[0], args[1])
	outlines.Compare(a, b).WriteText(cmd.OutOrStdout())
	return nil
}
