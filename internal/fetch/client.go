// Package fetch downloads remote incident files so they can be loaded like
// local ones.
//
// Open data portals publish incident extracts as plain HTTP downloads. A
// Client retrieves such a file with retries on transport failures and 5xx
// responses, and stores it under a local directory keeping the remote file
// name, so the loader can still pick the format from the extension.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rewired-gh/crimescope/internal/logger"
)

var log = logger.Named("fetch")

// Client downloads datasets over HTTP.
type Client struct {
	httpClient     *http.Client
	dir            string
	maxRetries     int
	retryDelayBase time.Duration
}

// Config holds Client settings.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	// Dir receives downloaded files. Empty means a crimescope-data
	// directory under the OS temp directory.
	Dir string
}

// NewClient creates a download client.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(os.TempDir(), "crimescope-data")
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		dir:            cfg.Dir,
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// IsRemote reports whether p is an http or https URL.
func IsRemote(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve returns p unchanged when it is a local path and downloads it
// otherwise, returning the local copy.
func (c *Client) Resolve(ctx context.Context, p string) (string, error) {
	if !IsRemote(p) {
		return p, nil
	}
	return c.Download(ctx, p)
}

// Download retrieves rawURL into the client's directory and returns the
// local path.
func (c *Client) Download(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid dataset URL: %w", err)
	}
	name := path.Base(u.Path)
	switch name {
	case "", ".", "..", "/":
		name = "dataset.csv"
	}

	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	dest := filepath.Join(c.dir, name)
	tmp, err := os.CreateTemp(c.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	log.Info("downloaded %d bytes from %s to %s", n, u.Host, dest)
	return dest, nil
}

// doRequest performs a GET, retrying transport errors and 5xx responses
// with a linear backoff.
func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			log.Warn("attempt %d/%d failed: %v", i+1, c.maxRetries, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			log.Warn("attempt %d/%d failed: %v", i+1, c.maxRetries, lastErr)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
