// Package provider lists the interpreter distributions available from the
// two upstream sources: python-build-standalone GitHub releases for CPython
// and the pypy.org download index for PyPy. Each provider serves exactly one
// interpreter family and is invoked explicitly by it.
package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/frederic-klein/lilyenv/internal/python"
)

const userAgent = "lilyenv"

// Builds created before this date use an incompatible asset naming scheme
// and are excluded from listings.
var namingCutoff = time.Date(2022, time.February, 26, 0, 0, 0, 0, time.UTC)

// CPython lists install-only python-build-standalone builds for one target
// platform.
type CPython struct {
	releasesURL string
	platform    string
	client      *http.Client
}

// NewCPython creates a provider querying the given GitHub releases URL for
// assets matching the platform triple.
func NewCPython(releasesURL, platform string) *CPython {
	return &CPython{
		releasesURL: releasesURL,
		platform:    platform,
		client:      &http.Client{},
	}
}

type githubRelease struct {
	CreatedAt time.Time     `json:"created_at"`
	Assets    []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// List returns the available CPython releases for the configured platform.
// Malformed asset names are skipped and reported in the second return value
// rather than aborting the listing. The final error is set only on transport
// or decoding failures.
func (p *CPython) List() ([]python.Release, []error, error) {
	req, err := http.NewRequest(http.MethodGet, p.releasesURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("listing releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("listing releases: HTTP %d", resp.StatusCode)
	}

	var ghReleases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&ghReleases); err != nil {
		return nil, nil, fmt.Errorf("decoding release list: %w", err)
	}

	var releases []python.Release
	var skipped []error
	for _, ghr := range ghReleases {
		if !ghr.CreatedAt.After(namingCutoff) {
			continue
		}

		// Checksum sidecars are not releases themselves but provide the
		// digest for the asset they are named after.
		checksums := make(map[string]string)
		for _, asset := range ghr.Assets {
			if strings.HasSuffix(asset.Name, ".sha256") {
				checksums[strings.TrimSuffix(asset.Name, ".sha256")] = asset.BrowserDownloadURL
			}
		}

		for _, asset := range ghr.Assets {
			if strings.HasSuffix(asset.Name, ".sha256") {
				continue
			}
			if !strings.Contains(asset.Name, p.platform) {
				continue
			}
			if !strings.Contains(asset.Name, "install_only") {
				continue
			}
			tag, version, err := python.ParseCPythonAsset(asset.Name)
			if err != nil {
				skipped = append(skipped, err)
				continue
			}
			releases = append(releases, python.Release{
				Name:        asset.Name,
				URL:         asset.BrowserDownloadURL,
				Version:     version,
				ReleaseTag:  tag,
				ChecksumURL: checksums[asset.Name],
			})
		}
	}
	return releases, skipped, nil
}
