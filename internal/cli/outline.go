package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/pkg/outline"
)

// outlineCommand creates the outline command for inspecting scenario outlines.
func (c *CLI) outlineCommand() *cobra.Command {
	var (
		output      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "outline [scenario.json]",
		Short: "Inspect an outline and annotate reverse dependencies",
		Long: `Inspect a scenario outline and annotate reverse dependencies.

The outline command reads an outline file, fills in the used_by field of
every signal and trend from the declared depends_on lists, and writes the
annotated outline back out.

With --interactive, opens a terminal browser for stepping through the
outline's entities instead of writing a file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOutline(cmd.Context(), args[0], output, interactive)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.annotated.json)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the outline in the terminal")

	return cmd
}

func (c *CLI) runOutline(ctx context.Context, input, output string, interactive bool) error {
	o, err := outline.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load outline %s: %w", input, err)
	}
	outline.ComputeUsedBy(&o)

	if interactive {
		model := NewOutlineBrowserModel(o)
		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("run browser: %w", err)
		}
		return nil
	}

	out := outputPath(input, output, ".annotated.json")
	if err := outline.WriteFile(o, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Outline annotated")
	printFile(out)
	printKeyValue("scenario", o.Scenario)
	printKeyValue("signals", fmt.Sprintf("%d", len(o.Signals)))
	printKeyValue("trends", fmt.Sprintf("%d", len(o.Trends)))
	printKeyValue("logic", fmt.Sprintf("%d", len(o.Logic)))
	printNewline()
	printNextStep("Compile", "scenograph graph "+input)

	return nil
}
