package gateways

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/javabuild/internal/domain/entities"
)

// BuildLogWriter persists captured build output in the log directory
type BuildLogWriter struct {
	logDir string
}

// NewBuildLogWriter creates a writer for logDir
func NewBuildLogWriter(logDir string) *BuildLogWriter {
	return &BuildLogWriter{logDir: logDir}
}

// WriteLog writes stdout followed by stderr to fileName and records the path
// in log. Existing files are never rotated or appended to.
func (w *BuildLogWriter) WriteLog(fileName string, log *entities.BuildLog) error {
	if err := os.MkdirAll(w.logDir, 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(w.logDir, fileName)
	if err := os.WriteFile(path, []byte(log.Content()), 0600); err != nil {
		return fmt.Errorf("failed to write build log: %w", err)
	}

	log.Path = path
	return nil
}
