package runcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/promptbench/cmd/promptbench/cmdconfig"
	"github.com/papercomputeco/promptbench/pkg/archive"
	"github.com/papercomputeco/promptbench/pkg/config"
	"github.com/papercomputeco/promptbench/pkg/dispatch"
	"github.com/papercomputeco/promptbench/pkg/job"
	"github.com/papercomputeco/promptbench/pkg/prompt"
	"github.com/papercomputeco/promptbench/pkg/sampler"
	"github.com/papercomputeco/promptbench/pkg/tui"
)

const runLongDesc string = `Send one prompt to a local text-generation server and save the answer.

The prompt is rendered from a chat template, the instruction, the content
and any attached files. The answer is normalized into JSON when possible
and written to <out>_structured.json and <out>_plain.txt.

Sampler values are slider positions: 0 leaves the option unset.
--top-k takes 0-100, --top-p and --min-p take 0-100 (hundredths),
--temperature takes 0-200 (hundredths).

Examples:
  promptbench run -t "Llama 3" -i "Summarise as JSON" --content-file notes.md -o out/summary
  promptbench run -t ChatML -i "Extract names" -a report.pdf --temperature 70 -o names`

const runShortDesc string = "Render, send and normalize one prompt"

type runCommander struct {
	flags cmdconfig.Flags

	template        string
	system          string
	instruction     string
	instructionFile string
	content         string
	contentFile     string
	attach          []string
	attachEncoding  string
	positions       sampler.Positions
	out             string
	maxLength       int
	clean           bool
	noTUI           bool
}

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.flags.Register(cmd)

	f := cmd.Flags()
	f.StringVarP(&cmder.template, "template", "t", "", "Chat template name (see 'promptbench templates')")
	f.StringVar(&cmder.system, "system", "", "System instruction")
	f.StringVarP(&cmder.instruction, "instruction", "i", "", "Instruction text")
	f.StringVar(&cmder.instructionFile, "instruction-file", "", "Read the instruction from a file")
	f.StringVarP(&cmder.content, "content", "c", "", "Content text")
	f.StringVar(&cmder.contentFile, "content-file", "", "Read the content from a file")
	f.StringArrayVarP(&cmder.attach, "attach", "a", nil, "Attach a file (repeatable, order preserved)")
	f.StringVar(&cmder.attachEncoding, "attach-encoding", "", "Attachment encoding: raw or base64 (default base64)")
	f.IntVar(&cmder.positions.TopK, "top-k", 0, "Top K slider position, 0-100")
	f.IntVar(&cmder.positions.TopP, "top-p", 0, "Top P slider position, 0-100")
	f.IntVar(&cmder.positions.MinP, "min-p", 0, "Min P slider position, 0-100")
	f.IntVar(&cmder.positions.Temperature, "temperature", 0, "Temperature slider position, 0-200")
	f.StringVarP(&cmder.out, "out", "o", "", "Output path prefix for the two artifacts")
	f.IntVar(&cmder.maxLength, "max-length", 0, "Max generation length (default 1000)")
	f.BoolVar(&cmder.clean, "clean", false, "Print the answer as cleaned narrative text")
	f.BoolVar(&cmder.noTUI, "no-tui", false, "Never show the interactive progress view")

	return cmd
}

func (c *runCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}
	c.applyConfig(cmd, &cfg)

	req, err := c.buildRequest(cfg)
	if err != nil {
		return err
	}

	interactive := !c.noTUI && isTerminal(cmd)

	log := zap.NewNop()
	if !interactive || cfg.Debug {
		log = cmdconfig.Logger(cmd, cfg)
	}
	defer log.Sync()

	var storer archive.Storer
	if cfg.Archive.Path != "" {
		storer, err = archive.NewSQLiteStorer(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("could not open archive %s: %w", cfg.Archive.Path, err)
		}
		defer storer.Close()
	}

	client := dispatch.New(dispatch.Config{
		BaseURL: cfg.Endpoint.URL,
		Token:   cfg.Endpoint.Token,
		Timeout: cfg.Endpoint.Timeout.Duration,
	}, log)
	runner := job.NewRunner(client, storer, log)

	j := job.Job{
		Request:      req,
		MaxLength:    cfg.Endpoint.MaxLength,
		OutputPrefix: cfg.Run.OutputPrefix,
	}

	if interactive {
		return c.runInteractive(ctx, cmd, runner, j, cfg)
	}

	out := runner.Run(ctx, j)
	if out.Err != nil {
		cmd.SilenceUsage = true
		return out.Err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	return c.printResult(cmd, out)
}

func (c *runCommander) runInteractive(ctx context.Context, cmd *cobra.Command, runner *job.Runner, j job.Job, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(tui.Options{
		Template: j.Request.TemplateName,
		Captions: cfg.Sampler.Captions(),
		Clean:    c.clean,
	}, func() <-chan job.Outcome {
		return runner.Start(ctx, j)
	}, cancel)

	out, err := tui.Run(model, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if out != nil && out.Err != nil {
		// The view already showed the message.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return out.Err
	}
	return nil
}

func (c *runCommander) printResult(cmd *cobra.Command, out job.Outcome) error {
	text := tui.ResultText(out.Response, c.clean)
	if !c.clean {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	rendered, err := tui.RenderMarkdown(text, 100)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// applyConfig folds config defaults into unset flags and set flags into cfg.
func (c *runCommander) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()

	if f.Changed("template") {
		cfg.Run.Template = c.template
	}
	if f.Changed("out") {
		cfg.Run.OutputPrefix = c.out
	}
	if f.Changed("attach-encoding") {
		cfg.Run.AttachEncoding = c.attachEncoding
	}
	if f.Changed("max-length") {
		cfg.Endpoint.MaxLength = c.maxLength
	}
	if f.Changed("top-k") {
		cfg.Sampler.TopK = c.positions.TopK
	}
	if f.Changed("top-p") {
		cfg.Sampler.TopP = c.positions.TopP
	}
	if f.Changed("min-p") {
		cfg.Sampler.MinP = c.positions.MinP
	}
	if f.Changed("temperature") {
		cfg.Sampler.Temperature = c.positions.Temperature
	}
}

func (c *runCommander) buildRequest(cfg config.Config) (prompt.Request, error) {
	if _, err := prompt.Lookup(cfg.Run.Template); err != nil {
		return prompt.Request{}, err
	}

	instruction, err := textOrFile(c.instruction, c.instructionFile, "instruction")
	if err != nil {
		return prompt.Request{}, err
	}
	content, err := textOrFile(c.content, c.contentFile, "content")
	if err != nil {
		return prompt.Request{}, err
	}

	enc, err := prompt.ParseEncoding(cfg.Run.AttachEncoding)
	if err != nil {
		return prompt.Request{}, err
	}

	files := prompt.NewFiles()
	for _, path := range c.attach {
		f, err := prompt.ReadAttachment(path, enc)
		if err != nil {
			return prompt.Request{}, err
		}
		files.Add(f.Name, f.Content)
	}

	settings, err := cfg.Sampler.Settings()
	if err != nil {
		return prompt.Request{}, err
	}

	return prompt.Request{
		TemplateName:      cfg.Run.Template,
		SystemInstruction: c.system,
		Instruction:       instruction,
		Content:           content,
		Files:             files,
		Sampler:           settings,
	}, nil
}

func textOrFile(text, path, what string) (string, error) {
	if path == "" {
		return text, nil
	}
	if text != "" {
		return "", fmt.Errorf("give either --%s or --%s-file, not both", what, what)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read %s file: %w", what, err)
	}
	return string(data), nil
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
