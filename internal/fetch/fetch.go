// Package fetch retrieves release archives into the local download cache.
//
// The cache is intentionally weak: a download is satisfied by the mere
// existence of its destination file, with no content or checksum
// verification. Deleting a file from the cache is the only way to force a
// re-download.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Happyholic1203/cursor-arm/internal/logging"
)

// Spec names one download: where it comes from and where it lands.
type Spec struct {
	URL             string
	DestinationPath string
}

// Outcome reports how a fetch was satisfied.
type Outcome int

const (
	// OutcomeCacheHit means the destination already existed; no network
	// access was performed.
	OutcomeCacheHit Outcome = iota
	// OutcomeDownloaded means the artifact was retrieved over the network.
	OutcomeDownloaded
)

func (o Outcome) String() string {
	if o == OutcomeCacheHit {
		return "cache_hit"
	}
	return "downloaded"
}

// Client performs blocking, non-retrying downloads.
type Client struct {
	HTTP   *http.Client
	Logger *slog.Logger
}

// Fetch satisfies the download. If the destination file exists it returns
// OutcomeCacheHit without touching the network, regardless of what the URL
// currently serves. Transport failures and non-2xx responses are fatal; a
// partially written destination is removed so it cannot poison the cache.
func (c *Client) Fetch(ctx context.Context, spec Spec) (Outcome, error) {
	if spec.URL == "" {
		return 0, errors.New("fetch: url is required")
	}
	if spec.DestinationPath == "" {
		return 0, errors.New("fetch: destination path is required")
	}

	logger := logging.Ensure(c.Logger).With("url", spec.URL, "destination", spec.DestinationPath)

	if _, err := os.Stat(spec.DestinationPath); err == nil {
		logger.Info("download satisfied from cache")
		return OutcomeCacheHit, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("stat %q: %w", spec.DestinationPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(spec.DestinationPath), 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}

	logger.Info("downloading")
	if err := c.download(ctx, spec); err != nil {
		return 0, err
	}
	logger.Info("download completed")
	return OutcomeDownloaded, nil
}

func (c *Client) download(ctx context.Context, spec Spec) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", spec.URL, err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", spec.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download %s: unexpected status %s", spec.URL, resp.Status)
	}

	out, err := os.OpenFile(spec.DestinationPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %q: %w", spec.DestinationPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(spec.DestinationPath)
		return fmt.Errorf("write %q: %w", spec.DestinationPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(spec.DestinationPath)
		return fmt.Errorf("finalize %q: %w", spec.DestinationPath, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
