package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
)

type recordedCommand struct {
	name string
	args []string
}

type stubRunner struct {
	commands []recordedCommand
	err      error
}

func (r *stubRunner) Run(_ context.Context, name string, args []string, _ []string) error {
	r.commands = append(r.commands, recordedCommand{name: name, args: args})
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractDispatchesTarForGzipSuffixes(t *testing.T) {
	for _, archive := range []string{"bundle.tar.gz", "bundle.tgz"} {
		t.Run(archive, func(t *testing.T) {
			runner := &stubRunner{}
			extractor := &Extractor{Runner: runner, Logger: discardLogger()}
			dest := t.TempDir()

			if err := extractor.Extract(context.Background(), archive, dest); err != nil {
				t.Fatalf("extract: %v", err)
			}
			if len(runner.commands) != 1 {
				t.Fatalf("expected 1 command, got %d", len(runner.commands))
			}
			cmd := runner.commands[0]
			if cmd.name != "tar" {
				t.Errorf("command: got %q, want tar", cmd.name)
			}
			want := []string{"-xzf", archive, "-C", dest}
			if !slices.Equal(cmd.args, want) {
				t.Errorf("args: got %v, want %v", cmd.args, want)
			}
		})
	}
}

func TestExtractDispatchesUnzipForZip(t *testing.T) {
	runner := &stubRunner{}
	extractor := &Extractor{Runner: runner, Logger: discardLogger()}
	dest := t.TempDir()
	archive := filepath.Join(t.TempDir(), "bundle.zip")

	if err := extractor.Extract(context.Background(), archive, dest); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(runner.commands))
	}
	cmd := runner.commands[0]
	if cmd.name != "unzip" {
		t.Errorf("command: got %q, want unzip", cmd.name)
	}
	want := []string{"-o", "-q", archive, "-d", dest}
	if !slices.Equal(cmd.args, want) {
		t.Errorf("args: got %v, want %v", cmd.args, want)
	}
}

func TestExtractRejectsUnknownSuffix(t *testing.T) {
	runner := &stubRunner{}
	extractor := &Extractor{Runner: runner, Logger: discardLogger()}

	err := extractor.Extract(context.Background(), "bundle.rar", t.TempDir())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if len(runner.commands) != 0 {
		t.Fatalf("no command must run for unknown suffix, got %d", len(runner.commands))
	}
}

func TestExtractPropagatesRunnerFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("tar: not in gzip format")}
	extractor := &Extractor{Runner: runner, Logger: discardLogger()}

	if err := extractor.Extract(context.Background(), "broken.tar.gz", t.TempDir()); err == nil {
		t.Fatal("expected runner failure to propagate")
	}
}
