package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nzcvm/nzcvm-webapp/internal/engine"
	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write and check configuration files",
}

var newConfig struct {
	lat, lng, extentX, extentY, rotation float64
	spacing, zMax, zMin, zSpacing, minVS float64
	modelVersion, topo, outputDir        string
	out                                  string
}

var configNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Write a configuration file for a domain",
	Long:  "Build a configuration from flags and write it as KEY=VALUE lines to --out or stdout.",
	Args:  cobra.NoArgs,
	RunE:  runConfigNew,
}

var configCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a configuration file and print its grid estimate",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigCheck,
}

func init() {
	f := configNewCmd.Flags()
	f.Float64Var(&newConfig.lat, "lat", vmconfig.DefaultOrigin.Lat, "origin latitude")
	f.Float64Var(&newConfig.lng, "lng", vmconfig.DefaultOrigin.Lng, "origin longitude")
	f.Float64Var(&newConfig.extentX, "extent-x", vmconfig.DefaultExtentKm, "east-west extent in km")
	f.Float64Var(&newConfig.extentY, "extent-y", vmconfig.DefaultExtentKm, "north-south extent in km")
	f.Float64Var(&newConfig.rotation, "rotation", 0, "clockwise rotation in degrees")
	f.Float64Var(&newConfig.spacing, "spacing", 1, "horizontal grid spacing in km")
	f.Float64Var(&newConfig.zMax, "zmax", 46, "maximum depth in km")
	f.Float64Var(&newConfig.zMin, "zmin", 0, "minimum depth in km")
	f.Float64Var(&newConfig.zSpacing, "zspacing", 1, "vertical grid spacing in km")
	f.Float64Var(&newConfig.minVS, "min-vs", 500, "minimum shear velocity in m/s")
	f.StringVar(&newConfig.modelVersion, "model-version", vmconfig.DefaultModelVersion, "velocity model version")
	f.StringVar(&newConfig.topo, "topo", string(vmconfig.TopoSquashedTapered), "topography type")
	f.StringVar(&newConfig.outputDir, "output-dir", vmconfig.DefaultOutputDir, "generator output directory")
	f.StringVarP(&newConfig.out, "out", "o", "", "file to write (default stdout)")

	configCmd.AddCommand(configNewCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigNew(cmd *cobra.Command, args []string) error {
	e := engine.NewEngine()
	if err := e.SetExtents(newConfig.extentX, newConfig.extentY); err != nil {
		return fmt.Errorf("extents: %w", err)
	}
	if err := e.SetOrigin(newConfig.lat, newConfig.lng); err != nil {
		return err
	}
	if err := e.SetRotation(newConfig.rotation); err != nil {
		return err
	}
	if err := e.SetTopoType(newConfig.topo); err != nil {
		return err
	}
	e.SetGrid(engine.GridParams{
		LatLonSpacing: newConfig.spacing,
		ZMax:          newConfig.zMax,
		ZMin:          newConfig.zMin,
		ZSpacing:      newConfig.zSpacing,
	})
	e.SetModelVersion(newConfig.modelVersion)
	e.SetMinVS(newConfig.minVS)
	e.SetOutputDir(newConfig.outputDir)

	rec := e.Record()
	if err := rec.Validate(); err != nil {
		return err
	}

	if newConfig.out == "" {
		_, err := rec.WriteTo(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout())
		return err
	}
	f, err := os.Create(newConfig.out)
	if err != nil {
		return err
	}
	if _, err := rec.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readConfig(path string) (vmconfig.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return vmconfig.Record{}, err
	}
	defer f.Close()
	rec, err := vmconfig.Parse(f)
	if err != nil {
		return vmconfig.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	rec, err := readConfig(args[0])
	if err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	g, _ := rec.Grid()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: valid\n", args[0])
	fmt.Fprintf(out, "  Origin: %s, rotation %g°\n", rec.Origin(), rec.OriginRot)
	fmt.Fprintf(out, "  Extent: %g km x %g km, depth %g to %g km\n", rec.ExtentX, rec.ExtentY, rec.ExtentZMin, rec.ExtentZMax)
	fmt.Fprintf(out, "  Grid: %d x %d x %d = %s points\n", g.NX, g.NY, g.NZ, geodesy.FormatTotal(g, true))
	fmt.Fprintf(out, "  Fingerprint: %s\n", rec.Fingerprint())
	return nil
}
