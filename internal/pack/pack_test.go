package pack

import (
	"archive/tar"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/Happyholic1203/cursor-arm/internal/target"
)

type recordedCommand struct {
	name string
	args []string
	env  []string
}

// stubRunner records commands and fakes appimagetool output so packaging
// can be exercised without the tools installed.
type stubRunner struct {
	commands []recordedCommand
}

func (r *stubRunner) Run(_ context.Context, name string, args []string, env []string) error {
	r.commands = append(r.commands, recordedCommand{name: name, args: args, env: env})
	if name == "appimagetool" && len(args) == 2 {
		return os.WriteFile(args[1], []byte("appimage"), 0o755)
	}
	return nil
}

type stubLocator struct{}

func (stubLocator) Locate(context.Context) (string, error) {
	return "appimagetool", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func treeFixture(t *testing.T) string {
	t.Helper()
	tree := t.TempDir()
	for path, content := range map[string]string{
		"cursor.desktop":             "[Desktop Entry]",
		"resources/app/product.json": `{"nameShort":"Cursor"}`,
		"bin/cursor":                 "#!/bin/sh\n",
	} {
		full := filepath.Join(tree, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return tree
}

func mustTarget(t *testing.T, id string) target.BuildTarget {
	t.Helper()
	bt, err := target.Resolve(id)
	if err != nil {
		t.Fatalf("resolve %s: %v", id, err)
	}
	return bt
}

func TestPackageProducesBothArtifacts(t *testing.T) {
	runner := &stubRunner{}
	packager := &Packager{
		Product: "cursor",
		DistDir: t.TempDir(),
		Runner:  runner,
		Locator: stubLocator{},
		Logger:  discardLogger(),
	}

	bt := mustTarget(t, "aarch64-linux")
	artifact, err := packager.Package(context.Background(), treeFixture(t), bt, "1.2.3")
	if err != nil {
		t.Fatalf("package: %v", err)
	}

	if filepath.Base(artifact.TarPath) != "cursor_1.2.3_linux-arm64.tar.gz" {
		t.Errorf("tar name: got %q", filepath.Base(artifact.TarPath))
	}
	if filepath.Base(artifact.ImagePath) != "cursor_1.2.3_linux-arm64.AppImage" {
		t.Errorf("image name: got %q", filepath.Base(artifact.ImagePath))
	}
	if _, err := os.Stat(artifact.TarPath); err != nil {
		t.Errorf("tar artifact missing: %v", err)
	}
	if _, err := os.Stat(artifact.ImagePath); err != nil {
		t.Errorf("image artifact missing: %v", err)
	}

	if len(runner.commands) != 2 {
		t.Fatalf("expected appimagetool and patchelf invocations, got %d", len(runner.commands))
	}

	appimage := runner.commands[0]
	if appimage.name != "appimagetool" {
		t.Errorf("first command: got %q", appimage.name)
	}
	if !slices.Contains(appimage.env, "ARCH=arm_aarch64") {
		t.Errorf("appimagetool env missing packaging arch tag: %v", appimage.env)
	}

	patch := runner.commands[1]
	if patch.name != "patchelf" {
		t.Errorf("second command: got %q", patch.name)
	}
	want := []string{"--set-interpreter", "/lib/ld-linux-aarch64.so.1", artifact.ImagePath}
	if !slices.Equal(patch.args, want) {
		t.Errorf("patchelf args: got %v, want %v", patch.args, want)
	}
}

func TestPackageUsesArmTagForArmv7l(t *testing.T) {
	runner := &stubRunner{}
	packager := &Packager{
		Product: "cursor",
		DistDir: t.TempDir(),
		Runner:  runner,
		Locator: stubLocator{},
		Logger:  discardLogger(),
	}

	bt := mustTarget(t, "armv7l-linux")
	artifact, err := packager.Package(context.Background(), treeFixture(t), bt, "1.2.3")
	if err != nil {
		t.Fatalf("package: %v", err)
	}

	if !slices.Contains(runner.commands[0].env, "ARCH=arm") {
		t.Errorf("expected ARCH=arm, got env %v", runner.commands[0].env)
	}
	if !slices.Contains(runner.commands[1].args, "/lib/ld-linux.so.3") {
		t.Errorf("expected armv7l interpreter, got %v", runner.commands[1].args)
	}
	if filepath.Base(artifact.TarPath) != "cursor_1.2.3_linux-armhf.tar.gz" {
		t.Errorf("tar name: got %q", filepath.Base(artifact.TarPath))
	}
}

// The tar archive is rooted at the tree contents: no parent directory
// entry, no leading ./ prefix.
func TestTarballEntriesAreTreeRooted(t *testing.T) {
	tree := treeFixture(t)
	tarPath := filepath.Join(t.TempDir(), "out.tar.gz")

	if err := writeTarball(tree, tarPath); err != nil {
		t.Fatalf("write tarball: %v", err)
	}

	file, err := os.Open(tarPath)
	if err != nil {
		t.Fatalf("open tarball: %v", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	tr := tar.NewReader(gz)

	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar entry: %v", err)
		}
		names = append(names, header.Name)
	}

	for _, name := range names {
		if strings.HasPrefix(name, "./") || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			t.Errorf("entry %q is not tree-rooted", name)
		}
	}
	if !slices.Contains(names, "cursor.desktop") {
		t.Errorf("expected cursor.desktop at archive root, entries: %v", names)
	}
	if !slices.Contains(names, "resources/app/product.json") {
		t.Errorf("expected nested manifest entry, entries: %v", names)
	}
}
