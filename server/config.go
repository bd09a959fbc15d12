package server

import "github.com/papercomputeco/promptbench/pkg/dispatch"

// Config is the HTTP shell configuration.
type Config struct {
	// Address to listen on (e.g., "127.0.0.1:8080")
	ListenAddr string

	// OutputDir is the directory every requested output prefix is resolved
	// under. Empty rejects requests that ask for artifacts.
	OutputDir string

	// Generation server every run is dispatched to.
	Endpoint dispatch.Config

	// MaxLength of each generation; zero uses the default.
	MaxLength int

	// ArchivePath is the path to the SQLite run archive.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	ArchivePath string
}
