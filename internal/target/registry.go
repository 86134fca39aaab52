// Package target holds the per-architecture parameter table for the build
// pipeline. Every stage that needs architecture-specific behavior reads it
// from a resolved BuildTarget; nothing else branches on the target id.
package target

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTarget is returned when an identifier has no parameter row.
var ErrUnsupportedTarget = errors.New("unsupported target")

// BuildTarget carries every architecture-specific parameter the pipeline
// needs. Immutable once resolved.
type BuildTarget struct {
	// ID is the identifier accepted on the command line.
	ID string
	// ShellArchTag is the architecture token used in VSCodium release
	// asset names (arm64, armhf).
	ShellArchTag string
	// InterpreterPath is the dynamic linker path patched into the final
	// AppImage.
	InterpreterPath string
	// PackagingArchTag is passed to appimagetool through the ARCH
	// environment variable. Exactly two values exist.
	PackagingArchTag string
	// ArchLabel is the human-readable architecture suffix used in output
	// file names.
	ArchLabel string
}

var registry = map[string]BuildTarget{
	"aarch64-linux": {
		ID:               "aarch64-linux",
		ShellArchTag:     "arm64",
		InterpreterPath:  "/lib/ld-linux-aarch64.so.1",
		PackagingArchTag: "arm_aarch64",
		ArchLabel:        "linux-arm64",
	},
	"armv7l-linux": {
		ID:               "armv7l-linux",
		ShellArchTag:     "armhf",
		InterpreterPath:  "/lib/ld-linux.so.3",
		PackagingArchTag: "arm",
		ArchLabel:        "linux-armhf",
	},
}

// Advertised lists the identifiers shown to users. It is deliberately wider
// than the set Resolve handles: x86_64-linux has never had a parameter row,
// so it resolves to ErrUnsupportedTarget instead of producing a malformed
// artifact. Kept for compatibility with the historical interface.
func Advertised() []string {
	return []string{"aarch64-linux", "armv7l-linux", "x86_64-linux"}
}

// Resolve looks up the BuildTarget for the given identifier.
func Resolve(id string) (BuildTarget, error) {
	t, ok := registry[id]
	if !ok {
		return BuildTarget{}, fmt.Errorf("resolve target %q: %w", id, ErrUnsupportedTarget)
	}
	return t, nil
}
