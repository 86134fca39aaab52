// Package merge overlays the Cursor application files onto a VSCodium base
// tree. The overlay is a fixed sequence of path-specific rules, not a
// generic recursive merge: each rule either replaces a named subpath
// wholesale or copies additively, and each rule is idempotent so a
// re-merge over an already merged tree yields the same result.
package merge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Happyholic1203/cursor-arm/internal/fsutil"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
)

const (
	appOutDir       = "out"
	extensionsDir   = "extensions"
	resourcesDir    = "resources"
	depsArchive     = "node_modules.asar"
	depsUnpackedDir = "node_modules"

	// Extension directories carrying Cursor's own functionality are
	// prefixed with the product name; everything else in the base tree's
	// extensions directory is left untouched.
	brandedExtensionPrefix = "cursor-"
)

// Merger applies the overlay rules. A missing source path inside the
// downstream bundle is fatal: the pipeline does not tolerate a Cursor
// release with an unexpected internal layout.
type Merger struct {
	Logger *slog.Logger
}

// Merge overlays downstreamApp (the Cursor bundle's resources/app
// directory) onto the tree's resources/app directory.
func (m *Merger) Merge(downstreamApp, tree string) error {
	baseApp := filepath.Join(tree, resourcesDir, "app")
	logger := logging.Ensure(m.Logger).With("component", "merge")

	steps := []struct {
		name string
		run  func() error
	}{
		{"replace compiled output", func() error {
			return fsutil.ReplaceDir(filepath.Join(downstreamApp, appOutDir), filepath.Join(baseApp, appOutDir))
		}},
		{"overwrite manifests", func() error {
			return copyManifests(downstreamApp, baseApp)
		}},
		{"copy branded extensions", func() error {
			return copyBrandedExtensions(downstreamApp, baseApp)
		}},
		{"replace dependency archive", func() error {
			return replaceDependencyArchive(downstreamApp, baseApp)
		}},
		{"replace bundled resources", func() error {
			return fsutil.ReplaceDir(filepath.Join(downstreamApp, resourcesDir), filepath.Join(baseApp, resourcesDir))
		}},
	}

	for _, step := range steps {
		logger.Info("applying merge rule", "rule", step.name)
		if err := step.run(); err != nil {
			return fmt.Errorf("merge rule %q: %w", step.name, err)
		}
	}
	return nil
}

// copyManifests overwrites the base app's top-level JSON manifests
// (product.json, package.json) with the downstream versions.
func copyManifests(downstreamApp, baseApp string) error {
	if _, err := os.Stat(downstreamApp); err != nil {
		return fmt.Errorf("stat app directory: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(downstreamApp, "*.json"))
	if err != nil {
		return err
	}

	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return err
		}
		if info.IsDir() {
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(baseApp, filepath.Base(src)), info.Mode().Perm()); err != nil {
			return fmt.Errorf("copy manifest %s: %w", filepath.Base(src), err)
		}
	}
	return nil
}

// copyBrandedExtensions copies every cursor-prefixed extension directory
// into the base tree's extensions directory. The copy is additive:
// extensions already present in the base tree are not removed.
func copyBrandedExtensions(downstreamApp, baseApp string) error {
	srcExtensions := filepath.Join(downstreamApp, extensionsDir)
	entries, err := os.ReadDir(srcExtensions)
	if err != nil {
		return fmt.Errorf("read extensions directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, brandedExtensionPrefix) {
			continue
		}
		src := filepath.Join(srcExtensions, name)
		dst := filepath.Join(baseApp, extensionsDir, name)
		if err := fsutil.ReplaceDir(src, dst); err != nil {
			return fmt.Errorf("copy extension %s: %w", name, err)
		}
	}
	return nil
}

// replaceDependencyArchive swaps the base tree's node dependencies for the
// downstream packed archive. Both the unpacked directory and any previous
// packed archive are deleted before the copy; deleting first is required so
// stale unpacked dependencies never sit alongside the new archive.
func replaceDependencyArchive(downstreamApp, baseApp string) error {
	src := filepath.Join(downstreamApp, depsArchive)
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat dependency archive: %w", err)
	}

	if err := fsutil.RemoveIfExists(filepath.Join(baseApp, depsUnpackedDir)); err != nil {
		return fmt.Errorf("remove unpacked dependencies: %w", err)
	}
	if err := fsutil.RemoveIfExists(filepath.Join(baseApp, depsArchive)); err != nil {
		return fmt.Errorf("remove stale dependency archive: %w", err)
	}

	return fsutil.CopyFile(src, filepath.Join(baseApp, depsArchive), info.Mode().Perm())
}
