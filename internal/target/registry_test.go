package target

import (
	"errors"
	"slices"
	"testing"
)

func TestResolveParameters(t *testing.T) {
	cases := []struct {
		id        string
		shellArch string
		interp    string
		packArch  string
		label     string
	}{
		{"aarch64-linux", "arm64", "/lib/ld-linux-aarch64.so.1", "arm_aarch64", "linux-arm64"},
		{"armv7l-linux", "armhf", "/lib/ld-linux.so.3", "arm", "linux-armhf"},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			bt, err := Resolve(tc.id)
			if err != nil {
				t.Fatalf("resolve %s: %v", tc.id, err)
			}
			if bt.ShellArchTag != tc.shellArch {
				t.Errorf("shell arch tag: got %q, want %q", bt.ShellArchTag, tc.shellArch)
			}
			if bt.InterpreterPath != tc.interp {
				t.Errorf("interpreter path: got %q, want %q", bt.InterpreterPath, tc.interp)
			}
			if bt.PackagingArchTag != tc.packArch {
				t.Errorf("packaging arch tag: got %q, want %q", bt.PackagingArchTag, tc.packArch)
			}
			if bt.ArchLabel != tc.label {
				t.Errorf("arch label: got %q, want %q", bt.ArchLabel, tc.label)
			}
		})
	}
}

func TestResolveUnknownTarget(t *testing.T) {
	if _, err := Resolve("riscv64-linux"); !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("expected ErrUnsupportedTarget, got %v", err)
	}
}

// x86_64-linux is advertised as supported but has never had a parameter
// row. It must fail resolution instead of producing a malformed artifact.
func TestAdvertisedTargetWithoutParameters(t *testing.T) {
	if !slices.Contains(Advertised(), "x86_64-linux") {
		t.Fatal("x86_64-linux missing from advertised targets")
	}
	if _, err := Resolve("x86_64-linux"); !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("expected ErrUnsupportedTarget for x86_64-linux, got %v", err)
	}
}

func TestPackagingArchTagsAreClosedSet(t *testing.T) {
	for _, id := range Advertised() {
		bt, err := Resolve(id)
		if err != nil {
			continue
		}
		if bt.PackagingArchTag != "arm_aarch64" && bt.PackagingArchTag != "arm" {
			t.Errorf("target %s has unexpected packaging arch tag %q", id, bt.PackagingArchTag)
		}
	}
}
