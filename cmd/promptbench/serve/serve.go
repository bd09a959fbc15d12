package servecmder

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/promptbench/cmd/promptbench/cmdconfig"
	"github.com/papercomputeco/promptbench/pkg/dispatch"
	"github.com/papercomputeco/promptbench/server"
)

const serveLongDesc string = `Serve the prompt pipeline over HTTP.

Endpoints:
  GET  /health        liveness check
  GET  /templates     built-in chat templates
  POST /run           render, send and normalize one prompt
  GET  /runs          archived runs, newest first
  GET  /runs/:hash    one archived run

Examples:
  promptbench serve --listen 127.0.0.1:8080 --url http://localhost:5001
  promptbench serve --output-dir ./answers
  promptbench serve --archive runs.db`

const serveShortDesc string = "Run the HTTP shell"

type serveCommander struct {
	flags     cmdconfig.Flags
	listen    string
	outputDir string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().StringVar(&cmder.listen, "listen", "", "Address to listen on (default 127.0.0.1:8080)")
	cmd.Flags().StringVar(&cmder.outputDir, "output-dir", "", "Directory that output prefixes from /run are confined to")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Server.ListenAddr = c.listen
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Server.OutputDir = c.outputDir
	}

	logger := cmdconfig.Logger(cmd, cfg)
	defer logger.Sync()

	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		OutputDir:  cfg.Server.OutputDir,
		Endpoint: dispatch.Config{
			BaseURL: cfg.Endpoint.URL,
			Token:   cfg.Endpoint.Token,
			Timeout: cfg.Endpoint.Timeout.Duration,
		},
		MaxLength:   cfg.Endpoint.MaxLength,
		ArchivePath: cfg.Archive.Path,
	}, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	go func() {
		quit := make(chan os.Signal, 2)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down HTTP shell")
		if err := srv.Shutdown(); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	return srv.Run()
}
