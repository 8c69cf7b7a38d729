package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bootconda/internal/platform"
)

const (
	// DefaultBaseURL hosts the Miniconda installers.
	DefaultBaseURL = "https://repo.anaconda.com/miniconda/"

	userAgent = "bootconda/1.0"
)

// Fetcher copies the body of a URL into w.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// HTTPFetcher fetches over HTTP(S). A zero value uses http.DefaultClient.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = userAgent
	}
	req.Header.Set("User-Agent", ua)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}

// InstallerURL builds the Miniconda installer URL for a platform, e.g.
// https://repo.anaconda.com/miniconda/Miniconda3-latest-Linux-x86_64.sh.
func InstallerURL(baseURL string, p platform.Profile) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + "Miniconda3-latest-" + p.InstallerOSToken() + p.InstallerArchToken() + p.InstallerExt()
}

// download writes url to dest through a temp file in the same directory so a
// failed or partial fetch never leaves a truncated installer behind. It
// returns the hex SHA-256 of what was written.
func download(ctx context.Context, f Fetcher, url, dest, checksum string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("prepare download destination: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "installer-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	h := sha256.New()
	if err := f.Fetch(ctx, url, io.MultiWriter(tmpFile, h)); err != nil {
		tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if checksum != "" && !strings.EqualFold(sum, checksum) {
		return "", &ChecksumError{Expected: strings.ToLower(checksum), Actual: sum}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("finalize download: %w", err)
	}
	return sum, nil
}
