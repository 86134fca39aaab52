// Package release resolves versioned download URLs for the two
// distributions combined by the pipeline: the Cursor editor release and the
// VSCodium base shell. URL construction is a pure function of component,
// version and target so cache file names stay deterministic.
package release

import (
	"fmt"

	"github.com/Happyholic1203/cursor-arm/internal/target"
)

// LatestVersion is the sentinel requesting resolution of the newest release.
const LatestVersion = "latest"

// Version is either a pinned version string or the "latest" sentinel.
type Version struct {
	value string
}

// NewVersion builds a Version; an empty string means latest.
func NewVersion(value string) Version {
	if value == "" {
		value = LatestVersion
	}
	return Version{value: value}
}

// Pinned reports whether the version names a concrete release.
func (v Version) Pinned() bool {
	return v.value != LatestVersion
}

func (v Version) String() string {
	return v.value
}

const (
	// Latest Cursor builds come through the redirect service; pinned
	// builds are served directly by the todesktop release host. The two
	// templates must not be collapsed: they point at different services.
	cursorLatestURL = "https://downloader.cursor.sh/linux/zip/x64"
	cursorPinnedURL = "https://download.todesktop.com/230313mzl4w4u92/Cursor-%s-x64.zip"

	codiumPinnedURL = "https://github.com/VSCodium/vscodium/releases/download/%s/VSCodium-linux-%s-%s.tar.gz"
	codiumLatestURL = "https://github.com/VSCodium/vscodium/releases/latest/download/VSCodium-linux-%s.tar.gz"
)

// CursorURL returns the download URL for the Cursor application bundle. The
// bundle carries only architecture-independent application files, so the
// x64 build is used for every target.
func CursorURL(v Version) string {
	if !v.Pinned() {
		return cursorLatestURL
	}
	return fmt.Sprintf(cursorPinnedURL, v)
}

// CodiumURL returns the download URL for the VSCodium release matching the
// target's shell architecture tag.
func CodiumURL(v Version, t target.BuildTarget) string {
	if !v.Pinned() {
		return fmt.Sprintf(codiumLatestURL, t.ShellArchTag)
	}
	return fmt.Sprintf(codiumPinnedURL, v, t.ShellArchTag, v)
}

// CursorArchiveName returns the deterministic cache file name for a Cursor
// download.
func CursorArchiveName(v Version) string {
	return fmt.Sprintf("cursor-%s-x64.zip", v)
}

// CodiumArchiveName returns the deterministic cache file name for a
// VSCodium download.
func CodiumArchiveName(v Version, t target.BuildTarget) string {
	return fmt.Sprintf("vscodium-%s-%s.tar.gz", v, t.ShellArchTag)
}
