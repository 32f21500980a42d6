// Package layout derives the canonical on-disk paths for cached archives,
// installed interpreters and per-project virtualenvs. Directory existence at
// these paths is the sole cache-hit signal used throughout lilyenv.
package layout

import (
	"os"
	"path/filepath"

	"github.com/frederic-klein/lilyenv/internal/python"
)

// Layout computes paths under a fixed data and cache root. It performs no
// network or archive I/O.
type Layout struct {
	DataDir  string
	CacheDir string
}

// NewLayout creates a layout rooted at the configured directories.
func NewLayout(cfg Config) Layout {
	return Layout{DataDir: cfg.DataDir, CacheDir: cfg.CacheDir}
}

// InstalledDir returns the installation directory for a version, keyed by
// the version's display string.
func (l Layout) InstalledDir(v python.Version) string {
	return filepath.Join(l.DataDir, "pythons", v.String())
}

// DownloadsDir returns the directory holding cached distribution archives.
func (l Layout) DownloadsDir() string {
	return filepath.Join(l.CacheDir, "downloads")
}

// VirtualenvDir returns the directory of a project's virtualenv for a
// version.
func (l Layout) VirtualenvDir(project string, v python.Version) string {
	return filepath.Join(l.DataDir, "virtualenvs", project, v.String())
}

// IsInstalled reports whether a distribution for v is already installed.
// Existence of the directory is the single source of truth; no further
// validation is performed.
func (l Layout) IsInstalled(v python.Version) bool {
	return exists(l.InstalledDir(v))
}

// HasVirtualenv reports whether a project's virtualenv for v already exists.
func (l Layout) HasVirtualenv(project string, v python.Version) bool {
	return exists(l.VirtualenvDir(project, v))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
