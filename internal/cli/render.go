package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/pkg/config"
	"github.com/psdltools/scenograph/pkg/pipeline"
)

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formats string
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}
	opts.SetLayoutDefaults()

	cmd := &cobra.Command{
		Use:   "render [scenario.json]",
		Short: "Render a scenario outline as a node-link diagram",
		Long: `Render a scenario outline as a node-link diagram.

The render command runs the full compile, layout, render pipeline and
writes one file per requested format. Formats: svg, png, dot, json.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyLayoutConfig(cmd, cfg.Layout, &opts)
			opts.Formats = parseFormats(formats)
			return c.runRender(cmd.Context(), cfg, args[0], opts, output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&formats, "formats", "f", "svg", "comma-separated output formats: svg, png, dot, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base name (default: input without extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", opts.Direction, "layout direction: TB (default), LR")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include expressions and severities in labels")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg config.Config, input string, opts pipeline.Options, output string, noCache, refresh bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load outline %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.Refresh = refresh

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		out := base + "." + format
		if err := os.WriteFile(out, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write output %s: %w", out, err)
		}
		printFile(out)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	printDetail("crossings: %d", result.Stats.Crossings)

	return nil
}
