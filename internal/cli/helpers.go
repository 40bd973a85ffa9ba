package cli

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/store"
)

// withStore opens the collector database, executes the function, and
// handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// loadRegistry reads the experiment catalog the commands operate on.
func loadRegistry() (*experiment.Registry, error) {
	reg, err := experiment.LoadRegistry(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry %s: %w", registryPath, err)
	}
	return reg, nil
}

// newLogger builds the process logger. --verbose switches to debug level
// with console output.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// tokenFilePath returns the path of the collector token file, kept next to
// the database.
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(dbPath), ".splitkit-token")
}
