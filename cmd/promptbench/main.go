package main

import (
	"os"

	"github.com/spf13/cobra"

	historycmder "github.com/papercomputeco/promptbench/cmd/promptbench/history"
	runcmder "github.com/papercomputeco/promptbench/cmd/promptbench/run"
	servecmder "github.com/papercomputeco/promptbench/cmd/promptbench/serve"
	templatescmder "github.com/papercomputeco/promptbench/cmd/promptbench/templates"
	"github.com/papercomputeco/promptbench/pkg/config"
)

const rootLongDesc string = `promptbench sends a templated prompt to a locally hosted
text-generation server and saves the raw and normalized answer.

Settings are read from promptbench.toml, then PROMPTBENCH_* environment
variables, then flags.`

func main() {
	cmd := &cobra.Command{
		Use:   "promptbench",
		Short: "Prompt a local LLM and normalize its answer",
		Long:  rootLongDesc,
	}

	cmd.AddCommand(
		runcmder.NewRunCmd(),
		templatescmder.NewTemplatesCmd(),
		historycmder.NewHistoryCmd(),
		servecmder.NewServeCmd(),
		&cobra.Command{
			Use:   "env",
			Short: "List supported environment variables",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return config.Usage()
			},
		},
	)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
