// Package pack produces the two distribution artifacts from a finalized
// tree: a compressed tar archive and an AppImage whose embedded dynamic
// linker path is patched for the target architecture.
package pack

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/Happyholic1203/cursor-arm/internal/fetch"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
	"github.com/Happyholic1203/cursor-arm/internal/target"
	"github.com/Happyholic1203/cursor-arm/internal/tools"
)

// Artifact names the two outputs of a successful build.
type Artifact struct {
	TarPath   string `json:"tar_path"`
	ImagePath string `json:"image_path"`
}

// ToolLocator resolves a runnable appimagetool path, installing it when
// missing.
type ToolLocator interface {
	Locate(ctx context.Context) (string, error)
}

// Packager writes the distribution artifacts into DistDir.
type Packager struct {
	Product  string
	DistDir  string
	ToolsDir string
	Runner   tools.Runner
	Fetcher  *fetch.Client
	Locator  ToolLocator
	Logger   *slog.Logger
}

// Package archives the tree and builds the patched AppImage. The tar
// archive is rooted at the tree's contents; the AppImage build is
// parameterized by the target's packaging architecture tag through the ARCH
// environment variable, and its interpreter is rewritten with patchelf
// afterwards. The patch is destructive: a failure leaves the image in an
// indeterminate state and aborts the run.
func (p *Packager) Package(ctx context.Context, tree string, t target.BuildTarget, version string) (Artifact, error) {
	if err := os.MkdirAll(p.DistDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create dist directory: %w", err)
	}

	logger := logging.Ensure(p.Logger).With("component", "pack", "target", t.ID)
	base := fmt.Sprintf("%s_%s_%s", p.product(), version, t.ArchLabel)

	artifact := Artifact{
		TarPath:   filepath.Join(p.DistDir, base+".tar.gz"),
		ImagePath: filepath.Join(p.DistDir, base+".AppImage"),
	}

	logger.Info("writing tar archive", "path", artifact.TarPath)
	if err := writeTarball(tree, artifact.TarPath); err != nil {
		return Artifact{}, fmt.Errorf("write tar archive: %w", err)
	}

	toolPath, err := p.locator().Locate(ctx)
	if err != nil {
		return Artifact{}, err
	}

	logger.Info("building AppImage", "path", artifact.ImagePath, "arch", t.PackagingArchTag)
	if err := p.runner().Run(ctx, toolPath, []string{tree, artifact.ImagePath}, []string{"ARCH=" + t.PackagingArchTag}); err != nil {
		return Artifact{}, fmt.Errorf("build AppImage: %w", err)
	}

	logger.Info("patching image interpreter", "interpreter", t.InterpreterPath)
	if err := p.runner().Run(ctx, "patchelf", []string{"--set-interpreter", t.InterpreterPath, artifact.ImagePath}, nil); err != nil {
		return Artifact{}, fmt.Errorf("patch image interpreter: %w", err)
	}

	return artifact, nil
}

func (p *Packager) product() string {
	if p.Product != "" {
		return p.Product
	}
	return "cursor"
}

func (p *Packager) runner() tools.Runner {
	if p.Runner != nil {
		return p.Runner
	}
	return tools.ExecRunner{Logger: p.Logger}
}

func (p *Packager) locator() ToolLocator {
	if p.Locator != nil {
		return p.Locator
	}
	return &tools.AppImageTool{Dir: p.ToolsDir, Fetcher: p.Fetcher, Logger: p.Logger}
}

// writeTarball archives the contents of tree into a gzip-compressed tar
// file. Entries are stored relative to the tree itself, so unpacking does
// not introduce a wrapping parent directory.
func writeTarball(tree, tarPath string) error {
	out, err := os.OpenFile(tarPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(tree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(tree, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})

	if walkErr != nil {
		tw.Close()
		gz.Close()
		out.Close()
		os.Remove(tarPath)
		return walkErr
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}
