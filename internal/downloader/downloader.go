// Package downloader fetches distribution archives into the downloads
// cache. Existence of the target file is the sole cache-hit signal; once
// present an archive is never re-fetched.
package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/frederic-klein/lilyenv/internal/python"
)

const userAgent = "lilyenv"

// Downloader fetches archives into a fixed downloads directory.
type Downloader struct {
	downloadsDir string
	client       *http.Client
}

// New creates a downloader writing into downloadsDir.
func New(downloadsDir string) *Downloader {
	return &Downloader{
		downloadsDir: downloadsDir,
		client:       &http.Client{},
	}
}

// EnsureCached returns the cache path of the release's archive, downloading
// it first if absent. Downloads stream to a temporary file and are renamed
// into place only after the optional checksum verification succeeds, so the
// canonical path never holds partial data.
func (d *Downloader) EnsureCached(release python.Release) (string, error) {
	target := filepath.Join(d.downloadsDir, release.Name)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	if err := os.MkdirAll(d.downloadsDir, 0755); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}

	tmpPath := target + ".tmp"
	if err := d.downloadTo(release.URL, tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if release.ChecksumURL != "" {
		if err := d.verify(tmpPath, release.ChecksumURL); err != nil {
			os.Remove(tmpPath)
			return "", err
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming download: %w", err)
	}
	return target, nil
}

func (d *Downloader) downloadTo(url, path string) error {
	resp, err := d.get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// verify compares the file's SHA-256 digest against the upstream sidecar.
func (d *Downloader) verify(path, checksumURL string) error {
	resp, err := d.get(checksumURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading checksum: %w", err)
	}
	// Sidecar format: the hex digest, optionally followed by the filename.
	want := strings.Fields(string(body))
	if len(want) == 0 {
		return fmt.Errorf("empty checksum file at %s", checksumURL)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening download: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("hashing download: %w", err)
	}
	got := hex.EncodeToString(hash.Sum(nil))

	if !strings.EqualFold(got, want[0]) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", filepath.Base(path), got, want[0])
	}
	return nil
}

func (d *Downloader) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}
	return resp, nil
}
