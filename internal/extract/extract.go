// Package extract unpacks downloaded release archives into working
// directories, dispatching on the archive file name suffix.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Happyholic1203/cursor-arm/internal/logging"
	"github.com/Happyholic1203/cursor-arm/internal/tools"
)

// ErrUnknownFormat is returned for archive suffixes the extractor does not
// handle. Earlier revisions silently skipped such archives, leaving later
// stages to fail on a missing tree; the suffix check is now an explicit
// error.
var ErrUnknownFormat = errors.New("unknown archive format")

// Extractor unpacks archives by shelling out to tar or unzip.
type Extractor struct {
	Runner tools.Runner
	Logger *slog.Logger
}

// Extract unpacks archivePath into destDir, creating it if needed.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create extraction directory %q: %w", destDir, err)
	}

	logger := logging.Ensure(e.Logger).With("archive", filepath.Base(archivePath), "destination", destDir)

	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		logger.Info("extracting tar archive")
		if err := e.runner().Run(ctx, "tar", []string{"-xzf", archivePath, "-C", destDir}, nil); err != nil {
			return fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
		}
	case strings.HasSuffix(archivePath, ".zip"):
		logger.Info("extracting zip archive")
		if err := e.runner().Run(ctx, "unzip", []string{"-o", "-q", archivePath, "-d", destDir}, nil); err != nil {
			return fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
		}
	default:
		return fmt.Errorf("extract %s: %w", filepath.Base(archivePath), ErrUnknownFormat)
	}

	return nil
}

func (e *Extractor) runner() tools.Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return tools.ExecRunner{Logger: e.Logger}
}
