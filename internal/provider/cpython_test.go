package provider

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frederic-klein/lilyenv/internal/python"
)

const testPlatform = "x86_64-unknown-linux-gnu"

const releasesJSON = `[
  {
    "created_at": "2023-03-25T12:00:00Z",
    "assets": [
      {
        "name": "cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz",
        "browser_download_url": "https://example.com/cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz"
      },
      {
        "name": "cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz.sha256",
        "browser_download_url": "https://example.com/cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz.sha256"
      },
      {
        "name": "cpython-3.10.10+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz",
        "browser_download_url": "https://example.com/cpython-3.10.10+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz"
      },
      {
        "name": "cpython-3.11.2+20230325-aarch64-apple-darwin-install_only.tar.gz",
        "browser_download_url": "https://example.com/other-platform.tar.gz"
      },
      {
        "name": "cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-debug-full.tar.zst",
        "browser_download_url": "https://example.com/full-build.tar.zst"
      },
      {
        "name": "cpython-broken+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz",
        "browser_download_url": "https://example.com/broken.tar.gz"
      }
    ]
  },
  {
    "created_at": "2021-06-01T00:00:00Z",
    "assets": [
      {
        "name": "cpython-3.8.0+20210601-x86_64-unknown-linux-gnu-install_only.tar.gz",
        "browser_download_url": "https://example.com/old-naming-scheme.tar.gz"
      }
    ]
  }
]`

func TestCPython_List(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, releasesJSON)
	}))
	defer server.Close()

	p := NewCPython(server.URL, testPlatform)
	releases, skipped, err := p.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if gotUserAgent != "lilyenv" {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, "lilyenv")
	}

	// The sidecar, the other platform, the full build, the broken name and
	// the pre-cutoff release are all excluded.
	if len(releases) != 2 {
		t.Fatalf("List() returned %d releases, want 2: %+v", len(releases), releases)
	}

	first := releases[0]
	if want := "cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz"; first.Name != want {
		t.Errorf("release name = %q, want %q", first.Name, want)
	}
	if first.ReleaseTag != "20230325" {
		t.Errorf("release tag = %q, want %q", first.ReleaseTag, "20230325")
	}
	wantVersion := python.Version{Interpreter: python.CPython, Major: 3, Minor: 11, Bugfix: 2, HasBugfix: true}
	if first.Version != wantVersion {
		t.Errorf("version = %+v, want %+v", first.Version, wantVersion)
	}
	if first.ChecksumURL == "" {
		t.Error("ChecksumURL is empty, want the .sha256 sidecar URL")
	}
	if releases[1].ChecksumURL != "" {
		t.Errorf("ChecksumURL = %q for a release without a sidecar, want empty", releases[1].ChecksumURL)
	}

	// The malformed install_only asset is reported, not fatal.
	if len(skipped) != 1 {
		t.Errorf("List() skipped %d entries, want 1: %v", len(skipped), skipped)
	}
}

func TestCPython_List_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	p := NewCPython(server.URL, testPlatform)
	if _, _, err := p.List(); err == nil {
		t.Error("List() succeeded on HTTP 403, want error")
	}
}

func TestCPython_List_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	p := NewCPython(server.URL, testPlatform)
	if _, _, err := p.List(); err == nil {
		t.Error("List() succeeded on malformed JSON, want error")
	}
}
