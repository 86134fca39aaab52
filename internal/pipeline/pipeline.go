// Package pipeline chains the build stages into one sequential run:
// resolve download sources, fetch, extract, merge, finalize, package. Each
// stage's output is the next stage's sole input and the first failure
// aborts the run; there is no retry, rollback or partial-success recovery.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Happyholic1203/cursor-arm/internal/fetch"
	"github.com/Happyholic1203/cursor-arm/internal/fsutil"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
	"github.com/Happyholic1203/cursor-arm/internal/pack"
	"github.com/Happyholic1203/cursor-arm/internal/release"
	"github.com/Happyholic1203/cursor-arm/internal/target"
)

// Fetcher retrieves a download into the cache.
type Fetcher interface {
	Fetch(ctx context.Context, spec fetch.Spec) (fetch.Outcome, error)
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Merger overlays the downstream application files onto the package tree.
type Merger interface {
	Merge(downstreamApp, tree string) error
}

// Finalizer applies product branding to the package tree.
type Finalizer interface {
	Finalize(tree, downstreamRoot string) error
}

// Packager produces the distribution artifacts from a finalized tree.
type Packager interface {
	Package(ctx context.Context, tree string, t target.BuildTarget, version string) (pack.Artifact, error)
}

// Request carries everything one build needs. One request builds exactly
// one target; no state is shared across targets.
type Request struct {
	Target        target.BuildTarget
	CursorVersion release.Version
	CodiumVersion release.Version
	DownloadDir   string
	BuildDir      string
}

// Assembler wires the stages together.
type Assembler struct {
	Logger    *slog.Logger
	Fetcher   Fetcher
	Extractor Extractor
	Merger    Merger
	Finalizer Finalizer
	Packager  Packager
}

// Run executes the full pipeline for one target and returns the produced
// artifacts.
func (a *Assembler) Run(ctx context.Context, req Request) (pack.Artifact, error) {
	logger := logging.Ensure(a.Logger).With("component", "pipeline", "target", req.Target.ID)

	cursorSpec := fetch.Spec{
		URL:             release.CursorURL(req.CursorVersion),
		DestinationPath: filepath.Join(req.DownloadDir, release.CursorArchiveName(req.CursorVersion)),
	}
	codiumSpec := fetch.Spec{
		URL:             release.CodiumURL(req.CodiumVersion, req.Target),
		DestinationPath: filepath.Join(req.DownloadDir, release.CodiumArchiveName(req.CodiumVersion, req.Target)),
	}

	for _, spec := range []fetch.Spec{cursorSpec, codiumSpec} {
		outcome, err := a.Fetcher.Fetch(ctx, spec)
		if err != nil {
			return pack.Artifact{}, err
		}
		logger.Info("download ready", "archive", filepath.Base(spec.DestinationPath), "outcome", outcome.String())
	}

	workDir := filepath.Join(req.BuildDir, req.Target.ID)
	cursorRoot := filepath.Join(workDir, "cursor")
	codiumRoot := filepath.Join(workDir, "vscodium")

	// Extraction trees are cached the same way downloads are: by
	// existence. Remove the directory to force a fresh extraction.
	if err := a.extractIfMissing(ctx, cursorSpec.DestinationPath, cursorRoot, logger); err != nil {
		return pack.Artifact{}, err
	}
	if err := a.extractIfMissing(ctx, codiumSpec.DestinationPath, codiumRoot, logger); err != nil {
		return pack.Artifact{}, err
	}

	downstreamApp := filepath.Join(cursorRoot, "resources", "app")
	if !fsutil.Exists(downstreamApp) {
		return pack.Artifact{}, fmt.Errorf("cursor bundle has no resources/app directory under %s", cursorRoot)
	}

	// The package tree starts as a fresh copy of the base shell bundle so
	// every merge runs against a clean state.
	tree := filepath.Join(workDir, "tree")
	if err := fsutil.ReplaceDir(codiumRoot, tree); err != nil {
		return pack.Artifact{}, fmt.Errorf("stage package tree: %w", err)
	}
	logger.Info("staged package tree", "tree", tree)

	if err := a.Merger.Merge(downstreamApp, tree); err != nil {
		return pack.Artifact{}, err
	}
	logger.Info("merge completed")

	if err := a.Finalizer.Finalize(tree, cursorRoot); err != nil {
		return pack.Artifact{}, err
	}
	logger.Info("finalize completed")

	artifact, err := a.Packager.Package(ctx, tree, req.Target, req.CursorVersion.String())
	if err != nil {
		return pack.Artifact{}, err
	}
	logger.Info("packaging completed", "tar", artifact.TarPath, "image", artifact.ImagePath)

	return artifact, nil
}

func (a *Assembler) extractIfMissing(ctx context.Context, archivePath, destDir string, logger *slog.Logger) error {
	if _, err := os.Stat(destDir); err == nil {
		logger.Info("extraction satisfied from cache", "destination", destDir)
		return nil
	}
	return a.Extractor.Extract(ctx, archivePath, destDir)
}
