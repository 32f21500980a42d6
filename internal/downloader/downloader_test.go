package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/frederic-klein/lilyenv/internal/python"
)

func TestDownloader_EnsureCached(t *testing.T) {
	// Arrange
	content := []byte("archive bytes")
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write(content)
	}))
	defer server.Close()

	downloadsDir := filepath.Join(t.TempDir(), "downloads")
	d := New(downloadsDir)
	release := python.Release{
		Name: "cpython-3.11.2-test.tar.gz",
		URL:  server.URL + "/cpython-3.11.2-test.tar.gz",
	}

	// Act
	path, err := d.EnsureCached(release)

	// Assert
	if err != nil {
		t.Fatalf("EnsureCached() error = %v", err)
	}
	if want := filepath.Join(downloadsDir, release.Name); path != want {
		t.Errorf("EnsureCached() = %q, want %q", path, want)
	}
	if gotUserAgent != "lilyenv" {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, "lilyenv")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("file content = %q, want %q", data, content)
	}
}

func TestDownloader_EnsureCached_Hit(t *testing.T) {
	// Arrange: pre-create the archive
	downloadsDir := t.TempDir()
	target := filepath.Join(downloadsDir, "cached.tar.gz")
	if err := os.WriteFile(target, []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("new content"))
	}))
	defer server.Close()

	d := New(downloadsDir)
	release := python.Release{Name: "cached.tar.gz", URL: server.URL + "/cached.tar.gz"}

	// Act
	path, err := d.EnsureCached(release)

	// Assert
	if err != nil {
		t.Fatalf("EnsureCached() error = %v", err)
	}
	if requests != 0 {
		t.Errorf("server was called %d times, want 0 (should use cache)", requests)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "cached" {
		t.Errorf("cached file was overwritten: %q", data)
	}
}

func TestDownloader_EnsureCached_ChecksumOK(t *testing.T) {
	content := []byte("verified archive")
	sum := sha256.Sum256(content)

	mux := http.NewServeMux()
	mux.HandleFunc("/archive.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})
	mux.HandleFunc("/archive.tar.gz.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  archive.tar.gz\n", hex.EncodeToString(sum[:]))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := New(t.TempDir())
	release := python.Release{
		Name:        "archive.tar.gz",
		URL:         server.URL + "/archive.tar.gz",
		ChecksumURL: server.URL + "/archive.tar.gz.sha256",
	}

	path, err := d.EnsureCached(release)
	if err != nil {
		t.Fatalf("EnsureCached() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("archive missing after verified download: %v", err)
	}
}

func TestDownloader_EnsureCached_ChecksumMismatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/archive.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered archive"))
	})
	mux.HandleFunc("/archive.tar.gz.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	downloadsDir := t.TempDir()
	d := New(downloadsDir)
	release := python.Release{
		Name:        "archive.tar.gz",
		URL:         server.URL + "/archive.tar.gz",
		ChecksumURL: server.URL + "/archive.tar.gz.sha256",
	}

	if _, err := d.EnsureCached(release); err == nil {
		t.Fatal("EnsureCached() succeeded with a bad checksum, want error")
	}

	// Neither the archive nor the temp file may remain.
	entries, err := os.ReadDir(downloadsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("downloads dir not clean after failed verification: %v", entries)
	}
}

func TestDownloader_EnsureCached_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	downloadsDir := t.TempDir()
	d := New(downloadsDir)
	release := python.Release{Name: "missing.tar.gz", URL: server.URL + "/missing.tar.gz"}

	if _, err := d.EnsureCached(release); err == nil {
		t.Fatal("EnsureCached() succeeded on HTTP 404, want error")
	}
	if _, err := os.Stat(filepath.Join(downloadsDir, "missing.tar.gz")); err == nil {
		t.Error("archive exists at canonical path after failed download")
	}
}
