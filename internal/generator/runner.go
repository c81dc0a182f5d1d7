package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner produces a velocity model from a config file.
type Runner interface {
	Generate(ctx context.Context, configPath, outDir string) error
}

// CommandRunner runs the external model generator.
type CommandRunner struct {
	Path         string
	OutputFormat string
}

// Args returns the generator command line for one run.
func (c CommandRunner) Args(configPath, outDir string) []string {
	return []string{
		"generate-velocity-model", configPath,
		"--out-dir", outDir,
		"--output-format", c.OutputFormat,
	}
}

func (c CommandRunner) Generate(ctx context.Context, configPath, outDir string) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args(configPath, outDir)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s", ctxErr, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
