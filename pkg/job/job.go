// Package job runs one render, dispatch, normalize and persist cycle and turns
// every failure into a single human-readable outcome.
package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/papercomputeco/promptbench/pkg/archive"
	"github.com/papercomputeco/promptbench/pkg/llm"
	"github.com/papercomputeco/promptbench/pkg/normalize"
	"github.com/papercomputeco/promptbench/pkg/prompt"
)

// Dispatcher sends a rendered prompt and returns the generated text.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string, maxLength int, sampler llm.Sampler) (string, error)
}

// Job is one invocation.
type Job struct {
	Request prompt.Request

	// MaxLength of the generation; zero uses llm.DefaultMaxLength.
	MaxLength int

	// OutputPrefix names the artifacts: {prefix}_structured.json and
	// {prefix}_plain.txt. Empty skips writing them.
	OutputPrefix string
}

// Outcome is the single completion report of a job.
type Outcome struct {
	Prompt   string
	Raw      string
	Response normalize.Response

	// Artifacts written, in order structured then plain.
	Artifacts []string

	// Hash of the archived record, empty when no archive is configured.
	RecordHash string

	Err     error
	Message string
}

// Runner executes jobs.
type Runner struct {
	dispatcher Dispatcher
	normalizer *normalize.Normalizer
	storer     archive.Storer
	logger     *zap.Logger
}

// NewRunner creates a Runner. storer may be nil to skip archiving.
func NewRunner(dispatcher Dispatcher, storer archive.Storer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		dispatcher: dispatcher,
		normalizer: normalize.New(logger),
		storer:     storer,
		logger:     logger,
	}
}

// Start runs j on its own goroutine. The returned channel receives exactly one
// Outcome and is then closed.
func (r *Runner) Start(ctx context.Context, j Job) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		done <- r.Run(ctx, j)
	}()
	return done
}

// Run executes j synchronously. Errors never escape: they are reported through
// Outcome.Err and Outcome.Message.
func (r *Runner) Run(ctx context.Context, j Job) Outcome {
	out := r.run(ctx, j)
	if out.Err != nil {
		out.Message = "Error: " + out.Err.Error()
		r.logger.Error("job failed", zap.Error(out.Err))
		return out
	}

	switch {
	case len(out.Artifacts) == 2:
		out.Message = fmt.Sprintf("Response saved to %s and %s", out.Artifacts[0], out.Artifacts[1])
	default:
		out.Message = "Response received"
	}
	if out.Response.Degraded {
		out.Message += " (kept as plain text)"
	}
	return out
}

func (r *Runner) run(ctx context.Context, j Job) Outcome {
	var out Outcome

	rendered, err := j.Request.Render()
	if err != nil {
		out.Err = err
		return out
	}
	out.Prompt = rendered

	r.logger.Info("dispatching prompt",
		zap.String("template", j.Request.TemplateName),
		zap.Int("prompt_length", len(rendered)),
		zap.Int("attachments", j.Request.Files.Len()),
		zap.Bool("server_sampling_defaults", j.Request.Sampler.IsEmpty()),
	)

	raw, err := r.dispatcher.Dispatch(ctx, rendered, j.MaxLength, j.Request.Sampler)
	if err != nil {
		out.Err = err
		return out
	}
	out.Raw = raw

	out.Response = r.normalizer.Normalize(raw)
	if out.Response.Degraded {
		r.logger.Warn("normalization degraded", zap.Error(out.Response.Err()))
	}

	if j.OutputPrefix != "" {
		paths, err := WriteArtifacts(j.OutputPrefix, out.Response.Value)
		out.Artifacts = paths
		if err != nil {
			out.Err = err
			return out
		}
	}

	if r.storer != nil {
		record := archive.NewRecord(j.Request.TemplateName, rendered, raw, out.Response.Value, out.Response.Degraded)
		isNew, err := r.storer.Put(ctx, record)
		if err != nil {
			out.Err = fmt.Errorf("archive run: %w", err)
			return out
		}
		out.RecordHash = record.Hash
		r.logger.Debug("run archived", zap.String("hash", record.Hash), zap.Bool("new", isNew))
	}

	return out
}

// ArtifactPaths returns the structured and plain artifact paths for prefix.
func ArtifactPaths(prefix string) (structured, plain string) {
	return prefix + "_structured.json", prefix + "_plain.txt"
}

// WriteArtifacts overwrites both artifacts for value and returns the paths
// written so far.
func WriteArtifacts(prefix string, value any) ([]string, error) {
	if prefix == "" {
		return nil, errors.New("empty output prefix")
	}
	structured, plain := ArtifactPaths(prefix)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("marshal structured output: %w", err)
	}

	if err := os.WriteFile(structured, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", structured, err)
	}
	if err := os.WriteFile(plain, []byte(normalize.PlainText(value)), 0o644); err != nil {
		return []string{structured}, fmt.Errorf("write %s: %w", plain, err)
	}

	return []string{structured, plain}, nil
}
