package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/pkg/pipeline"
	"github.com/psdltools/scenograph/pkg/scene"
)

// graphCommand creates the graph command for compiling outlines.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "graph [scenario.json]",
		Short: "Compile an outline into a dependency graph",
		Long: `Compile a scenario outline into a dependency graph.

One node is created per signal, trend, and logic rule. Logic rules that
combine two or more dependencies with an operator get a synthesized gate
node carrying the operator label. Dependencies that don't resolve to a
declared entity are dropped.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompile even if cached")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input, output string, noCache, refresh bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load outline %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{Logger: c.Logger, Refresh: refresh}

	p := newProgress(c.Logger)
	compiled, scenario, cacheHit, err := runner.CompileWithCacheInfo(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("compile outline: %w", err)
	}
	p.done(fmt.Sprintf("Compiled %d nodes", compiled.Graph.NodeCount()))

	out := outputPath(input, output, ".graph.json")
	if err := scene.WriteGraphFile(scene.FromCompile(scenario, compiled), out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Graph compiled")
	printFile(out)
	printStats(compiled.Graph.NodeCount(), compiled.Graph.EdgeCount(), cacheHit)
	for _, caveat := range compiled.Caveats {
		printWarning("rule %s mixes operators (%s); gate shows %s only",
			caveat.Rule, strings.Join(caveat.Operators, ", "), caveat.Operators[0])
	}
	printNewline()
	printNextStep("Layout", "scenograph layout "+input)

	return nil
}
