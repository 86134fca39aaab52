package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/Happyholic1203/cursor-arm/internal/extract"
	"github.com/Happyholic1203/cursor-arm/internal/fetch"
	"github.com/Happyholic1203/cursor-arm/internal/finalize"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
	"github.com/Happyholic1203/cursor-arm/internal/merge"
	"github.com/Happyholic1203/cursor-arm/internal/pack"
	"github.com/Happyholic1203/cursor-arm/internal/pipeline"
	"github.com/Happyholic1203/cursor-arm/internal/release"
	"github.com/Happyholic1203/cursor-arm/internal/target"
	"github.com/Happyholic1203/cursor-arm/internal/tools"
)

// Manifest records what a run produced, written next to the artifacts.
type Manifest struct {
	RunID         string        `json:"run_id"`
	Target        string        `json:"target"`
	ArchLabel     string        `json:"arch_label"`
	CursorVersion string        `json:"cursor_version"`
	CodiumVersion string        `json:"codium_version"`
	Artifact      pack.Artifact `json:"artifact"`
}

// Assemble resolves the target and runs the end-to-end build with the
// default component wiring. It returns the produced artifacts.
func Assemble(ctx context.Context, targetID string, cfg Config, logger *slog.Logger) (pack.Artifact, error) {
	buildTarget, err := target.Resolve(targetID)
	if err != nil {
		return pack.Artifact{}, err
	}

	runID := uuid.NewString()
	logger = logging.Ensure(logger).With("run_id", runID, "target", buildTarget.ID)
	logger.Info("starting build",
		"cursor_version", cfg.CursorVersion,
		"codium_version", cfg.CodiumVersion,
	)

	fetcher := &fetch.Client{Logger: logger.With("component", "fetch")}
	runner := tools.ExecRunner{Logger: logger}

	assembler := &pipeline.Assembler{
		Logger:  logger,
		Fetcher: fetcher,
		Extractor: &extract.Extractor{
			Runner: runner,
			Logger: logger.With("component", "extract"),
		},
		Merger: &merge.Merger{
			Logger: logger,
		},
		Finalizer: &finalize.Finalizer{
			BinaryName: cfg.Product,
			Logger:     logger,
		},
		Packager: &pack.Packager{
			Product:  cfg.Product,
			DistDir:  cfg.DistDir,
			ToolsDir: cfg.ToolsDir,
			Runner:   runner,
			Fetcher:  fetcher,
			Logger:   logger,
		},
	}

	artifact, err := assembler.Run(ctx, pipeline.Request{
		Target:        buildTarget,
		CursorVersion: release.NewVersion(cfg.CursorVersion),
		CodiumVersion: release.NewVersion(cfg.CodiumVersion),
		DownloadDir:   cfg.DownloadDir,
		BuildDir:      cfg.BuildDir,
	})
	if err != nil {
		return pack.Artifact{}, err
	}

	if err := writeManifest(runID, buildTarget, cfg, artifact); err != nil {
		return pack.Artifact{}, err
	}

	logger.Info("build completed", "dist_dir", cfg.DistDir)
	return artifact, nil
}

func writeManifest(runID string, t target.BuildTarget, cfg Config, artifact pack.Artifact) error {
	manifest := Manifest{
		RunID:         runID,
		Target:        t.ID,
		ArchLabel:     t.ArchLabel,
		CursorVersion: cfg.CursorVersion,
		CodiumVersion: cfg.CodiumVersion,
		Artifact:      artifact,
	}

	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := strings.TrimSuffix(artifact.TarPath, ".tar.gz") + ".json"
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
