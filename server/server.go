// Package server exposes the prompt pipeline over HTTP as a thin shell: it only
// collects the run inputs and returns the outcome.
package server

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/promptbench/pkg/archive"
	"github.com/papercomputeco/promptbench/pkg/dispatch"
	"github.com/papercomputeco/promptbench/pkg/job"
	"github.com/papercomputeco/promptbench/pkg/llm"
	"github.com/papercomputeco/promptbench/pkg/prompt"
	"github.com/papercomputeco/promptbench/pkg/sampler"
)

// Server is the HTTP shell around a job.Runner.
type Server struct {
	config Config
	runner *job.Runner
	storer archive.Storer
	logger *zap.Logger
	app    *fiber.App
}

// New creates a new Server.
func New(config Config, logger *zap.Logger) (*Server, error) {
	var storer archive.Storer
	var err error

	if config.ArchivePath != "" {
		storer, err = archive.NewSQLiteStorer(config.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("using SQLite archive", zap.String("path", config.ArchivePath))
	} else {
		storer = archive.NewMemoryStorer()
		logger.Info("using in-memory archive")
	}

	runner := job.NewRunner(dispatch.New(config.Endpoint, logger), storer, logger)
	return newServer(config, runner, storer, logger), nil
}

func newServer(config Config, runner *job.Runner, storer archive.Storer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		runner: runner,
		storer: storer,
		logger: logger,
		app:    app,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/templates", s.handleTemplates)
	app.Post("/run", s.handleRun)
	app.Get("/runs", s.handleListRuns)
	app.Get("/runs/:hash", s.handleGetRun)

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting HTTP shell",
		zap.String("listen", s.config.ListenAddr),
		zap.String("endpoint", s.config.Endpoint.BaseURL),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close releases the archive.
func (s *Server) Close() error {
	return s.storer.Close()
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Template          string            `json:"template"`
	SystemInstruction string            `json:"system_instruction,omitempty"`
	Instruction       string            `json:"instruction"`
	Content           string            `json:"content"`
	Files             []prompt.File     `json:"files,omitempty"`
	Sampler           sampler.Positions `json:"sampler"`
	OutputPrefix      string            `json:"output_prefix,omitempty"`
}

// RunResponse is the body returned by POST /run.
type RunResponse struct {
	Message    string   `json:"message"`
	Raw        string   `json:"raw"`
	Normalized any      `json:"normalized"`
	Degraded   bool     `json:"degraded"`
	Artifacts  []string `json:"artifacts,omitempty"`
	RecordHash string   `json:"record_hash,omitempty"`
}

func (s *Server) handleTemplates(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"templates": prompt.Templates(),
	})
}

// handleRun executes one job synchronously; the request goroutine blocks on the
// generation call and nothing else shares state with it.
func (s *Server) handleRun(c *fiber.Ctx) error {
	var req RunRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Error("failed to parse run request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	settings, err := req.Sampler.Settings()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	if _, err := prompt.Lookup(req.Template); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	prefix, err := s.outputPrefix(req.OutputPrefix)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	out := s.runner.Run(c.UserContext(), job.Job{
		Request: prompt.Request{
			TemplateName:      req.Template,
			SystemInstruction: req.SystemInstruction,
			Instruction:       req.Instruction,
			Content:           req.Content,
			Files:             prompt.NewFiles(req.Files...),
			Sampler:           settings,
		},
		MaxLength:    s.config.MaxLength,
		OutputPrefix: prefix,
	})

	if out.Err != nil {
		return c.Status(statusFor(out.Err)).JSON(llm.ErrorResponse{Error: out.Message})
	}

	return c.JSON(RunResponse{
		Message:    out.Message,
		Raw:        out.Raw,
		Normalized: out.Response.Value,
		Degraded:   out.Response.Degraded,
		Artifacts:  out.Artifacts,
		RecordHash: out.RecordHash,
	})
}

func (s *Server) handleListRuns(c *fiber.Ctx) error {
	records, err := s.storer.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list runs"})
	}

	return c.JSON(map[string]any{
		"count": len(records),
		"runs":  records,
	})
}

func (s *Server) handleGetRun(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	record, err := s.storer.Get(c.UserContext(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "run not found"})
	}

	return c.JSON(record)
}

// outputPrefix resolves a requested prefix under the configured output
// directory. Absolute prefixes and prefixes escaping the directory are refused.
func (s *Server) outputPrefix(requested string) (string, error) {
	if requested == "" {
		return "", nil
	}
	if s.config.OutputDir == "" {
		return "", errors.New("artifact output is disabled on this server")
	}
	if !filepath.IsLocal(requested) {
		return "", fmt.Errorf("output prefix %q must be a relative path inside the output directory", requested)
	}
	return filepath.Join(s.config.OutputDir, requested), nil
}

// statusFor maps a pipeline failure to the shell's HTTP status.
func statusFor(err error) int {
	var (
		unknown   prompt.ErrUnknownTemplate
		network   dispatch.ErrNetwork
		status    dispatch.ErrHTTPStatus
		malformed dispatch.ErrMalformedResponse
	)

	switch {
	case errors.As(err, &unknown):
		return fiber.StatusBadRequest
	case errors.As(err, &network), errors.As(err, &status), errors.As(err, &malformed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
