package templatescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/promptbench/pkg/prompt"
)

const templatesLongDesc string = `List the built-in chat templates.

Each template is a fixed set of turn markers for one model family.
Use --show to print the literal markers.

Examples:
  promptbench templates
  promptbench templates --show`

const templatesShortDesc string = "List chat templates"

type templatesCommander struct {
	show bool
}

func NewTemplatesCmd() *cobra.Command {
	cmder := &templatesCommander{}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: templatesShortDesc,
		Long:  templatesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.show, "show", false, "Print the literal markers of every template")

	return cmd
}

func (c *templatesCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if !c.show {
		for _, name := range prompt.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	for _, t := range prompt.Templates() {
		fmt.Fprintf(out, "%s\n", t.Name)
		fmt.Fprintf(out, "  system:    %q\n", t.System)
		fmt.Fprintf(out, "  user:      %q\n", t.User)
		fmt.Fprintf(out, "  assistant: %q\n", t.Assistant)
		if t.EndTurn != "" {
			fmt.Fprintf(out, "  end turn:  %q\n", t.EndTurn)
		}
	}

	return nil
}
