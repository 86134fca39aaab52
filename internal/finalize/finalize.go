// Package finalize rebrands a merged tree: icons, desktop entry, launcher
// assets and the shell binary name all switch to the downstream product.
// Every step is optional — older Cursor releases ship without some of these
// files — so an absent source is a skip, never an error.
package finalize

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Happyholic1203/cursor-arm/internal/fsutil"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
)

// Finalizer applies product branding to the package tree.
type Finalizer struct {
	// BinaryName is the product binary name the shell executables are
	// renamed to.
	BinaryName string
	Logger     *slog.Logger
}

// Finalize mutates tree in place using assets from the downstream bundle
// root.
func (f *Finalizer) Finalize(tree, downstreamRoot string) error {
	logger := logging.Ensure(f.Logger).With("component", "finalize")

	if err := f.copyRootAssets(tree, downstreamRoot, logger); err != nil {
		return err
	}
	if err := f.copyLauncherMetadata(tree, downstreamRoot, logger); err != nil {
		return err
	}
	if err := f.copyPlatformRuntime(tree, downstreamRoot, logger); err != nil {
		return err
	}
	return f.renameShellBinary(tree, logger)
}

func (f *Finalizer) copyRootAssets(tree, downstreamRoot string, logger *slog.Logger) error {
	for _, name := range []string{f.binaryName() + ".png", f.binaryName() + ".desktop", ".DirIcon"} {
		src := filepath.Join(downstreamRoot, name)
		info, err := os.Stat(src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("root asset not present, skipping", "asset", name)
				continue
			}
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if err := fsutil.CopyFile(src, filepath.Join(tree, name), info.Mode().Perm()); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
		logger.Info("copied root asset", "asset", name)
	}
	return nil
}

// copyLauncherMetadata copies every product-prefixed top-level directory of
// the downstream bundle into the tree's resources directory.
func (f *Finalizer) copyLauncherMetadata(tree, downstreamRoot string, logger *slog.Logger) error {
	entries, err := os.ReadDir(downstreamRoot)
	if err != nil {
		return fmt.Errorf("read bundle root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), f.binaryName()) {
			continue
		}
		src := filepath.Join(downstreamRoot, entry.Name())
		dst := filepath.Join(tree, "resources", entry.Name())
		if err := fsutil.ReplaceDir(src, dst); err != nil {
			return fmt.Errorf("copy launcher metadata %s: %w", entry.Name(), err)
		}
		logger.Info("copied launcher metadata", "directory", entry.Name())
	}
	return nil
}

func (f *Finalizer) copyPlatformRuntime(tree, downstreamRoot string, logger *slog.Logger) error {
	runtimeDir := filepath.Join(downstreamRoot, "linux")
	if fsutil.Exists(runtimeDir) {
		if err := fsutil.ReplaceDir(runtimeDir, filepath.Join(tree, "linux")); err != nil {
			return fmt.Errorf("copy platform runtime: %w", err)
		}
		logger.Info("copied platform runtime directory")
	}

	launcher := f.binaryName() + ".sh"
	src := filepath.Join(downstreamRoot, launcher)
	if fsutil.Exists(src) {
		dst := filepath.Join(tree, launcher)
		if err := fsutil.CopyFile(src, dst, 0o755); err != nil {
			return fmt.Errorf("copy launcher script: %w", err)
		}
		if err := os.Chmod(dst, 0o755); err != nil {
			return fmt.Errorf("mark launcher executable: %w", err)
		}
		logger.Info("copied launcher script", "script", launcher)
	}
	return nil
}

// renameShellBinary renames whichever of the inherited shell executables is
// present to the product binary name. A well-formed base distribution
// carries at most one of the three candidates; each is attempted
// independently, and a tree with none is left as-is.
func (f *Finalizer) renameShellBinary(tree string, logger *slog.Logger) error {
	candidates := []struct {
		from string
		to   string
	}{
		{"codium", f.binaryName()},
		{filepath.Join("bin", "codium"), filepath.Join("bin", f.binaryName())},
		{filepath.Join("bin", "vscodium"), filepath.Join("bin", f.binaryName())},
	}

	for _, candidate := range candidates {
		src := filepath.Join(tree, candidate.from)
		if !fsutil.Exists(src) {
			continue
		}
		dst := filepath.Join(tree, candidate.to)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("rename %s: %w", candidate.from, err)
		}
		logger.Info("renamed shell binary", "from", candidate.from, "to", candidate.to)
	}
	return nil
}

func (f *Finalizer) binaryName() string {
	if f.BinaryName != "" {
		return f.BinaryName
	}
	return "cursor"
}
