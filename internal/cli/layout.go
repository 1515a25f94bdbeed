package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/pkg/config"
	"github.com/psdltools/scenograph/pkg/pipeline"
	"github.com/psdltools/scenograph/pkg/scene"
)

// layoutCommand creates the layout command for computing positioned scenes.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}
	opts.SetLayoutDefaults()

	cmd := &cobra.Command{
		Use:   "layout [scenario.json]",
		Short: "Compute a layered layout for a scenario outline",
		Long: `Compute a layered layout for a scenario outline.

The layout command compiles the outline and assigns every node a rank
(longest path from the sources), an order within its rank (crossing
minimization), and x/y coordinates. The output is a scene.json that can
be rendered with 'scenograph render'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyLayoutConfig(cmd, cfg.Layout, &opts)
			return c.runLayout(cmd.Context(), cfg, args[0], opts, output, noCache, refresh)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.scene.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", opts.Direction, "layout direction: TB (default), LR")
	cmd.Flags().Float64Var(&opts.NodeWidth, "node-width", opts.NodeWidth, "node box width")
	cmd.Flags().Float64Var(&opts.NodeHeight, "node-height", opts.NodeHeight, "node box height")
	cmd.Flags().Float64Var(&opts.RankSpacing, "rank-spacing", opts.RankSpacing, "gap between ranks")
	cmd.Flags().Float64Var(&opts.NodeSpacing, "node-spacing", opts.NodeSpacing, "gap between nodes in a rank")

	return cmd
}

// runLayout compiles the outline, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, cfg config.Config, input string, opts pipeline.Options, output string, noCache, refresh bool) error {
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

	compiled, scenario, err := runner.Compile(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("compile outline: %w", err)
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	s, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, scenario, compiled, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(input, output, ".scene.json")
	if err := scene.WriteSceneFile(s, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(len(s.Nodes), len(s.Edges), cacheHit)
	printDetail("crossings: %d", s.Crossings)
	if s.DroppedSelfLoops > 0 {
		printWarning("dropped %d self loop(s)", s.DroppedSelfLoops)
	}
	printNewline()
	printNextStep("Render", "scenograph render "+input)

	return nil
}
