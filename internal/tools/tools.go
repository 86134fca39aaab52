// Package tools manages the external commands the pipeline shells out to:
// preflight checks for required tools, a command runner abstraction, and
// on-demand installation of appimagetool.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/Happyholic1203/cursor-arm/internal/fetch"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
)

// Runner executes an external command to completion. Extraction, packaging
// and patching all go through a Runner so stages can be tested without the
// tools installed.
type Runner interface {
	Run(ctx context.Context, name string, args []string, env []string) error
}

// ExecRunner runs commands with os/exec, surfacing combined output in the
// returned error so subprocess diagnostics reach the operator.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string, env []string) error {
	logging.Ensure(r.Logger).Debug("running command", "command", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Verify checks that every named tool is resolvable on PATH. It runs before
// any pipeline work so a missing tool fails fast instead of midway through
// a build.
func Verify(names ...string) error {
	var missing error
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = errors.Join(missing, fmt.Errorf("required tool %q not found in PATH", name))
		}
	}
	return missing
}

const appImageToolURL = "https://github.com/AppImage/appimagetool/releases/download/continuous/appimagetool-%s.AppImage"

// AppImageTool locates appimagetool, downloading a continuous build when
// the host has none installed. The downloaded binary is keyed by the host
// machine string from uname, which is unrelated to the build target ids:
// the tool must run on this machine, not on the target.
type AppImageTool struct {
	Dir     string
	Fetcher *fetch.Client
	Logger  *slog.Logger
}

// Locate returns a runnable appimagetool path. When the tool is fetched on
// demand its directory is prepended to PATH for the remainder of the run.
func (t *AppImageTool) Locate(ctx context.Context) (string, error) {
	if path, err := exec.LookPath("appimagetool"); err == nil {
		return path, nil
	}

	machine, err := hostMachine()
	if err != nil {
		return "", err
	}

	logger := logging.Ensure(t.Logger).With("component", "tools", "machine", machine)
	logger.Info("appimagetool not found, fetching continuous build")

	dest := filepath.Join(t.Dir, "appimagetool")
	fetcher := t.Fetcher
	if fetcher == nil {
		fetcher = &fetch.Client{Logger: logger}
	}
	if _, err := fetcher.Fetch(ctx, fetch.Spec{
		URL:             fmt.Sprintf(appImageToolURL, machine),
		DestinationPath: dest,
	}); err != nil {
		return "", fmt.Errorf("fetch appimagetool: %w", err)
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return "", fmt.Errorf("mark appimagetool executable: %w", err)
	}

	absDir, err := filepath.Abs(t.Dir)
	if err != nil {
		return "", err
	}
	if err := os.Setenv("PATH", absDir+string(os.PathListSeparator)+os.Getenv("PATH")); err != nil {
		return "", fmt.Errorf("prepend tool directory to PATH: %w", err)
	}

	return dest, nil
}

// hostMachine returns the uname machine string of the build host, mapped to
// the token appimagetool release assets use.
func hostMachine() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}

	machine := unix.ByteSliceToString(uts.Machine[:])
	if machine == "armv7l" {
		return "armhf", nil
	}
	return machine, nil
}
