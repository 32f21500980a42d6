// Package installer orchestrates the resolution pipeline: provider listing,
// release matching, archive download and extraction into the installation
// layout.
package installer

import (
	"fmt"
	"io"
	"os"

	"github.com/frederic-klein/lilyenv/internal/downloader"
	"github.com/frederic-klein/lilyenv/internal/extractor"
	"github.com/frederic-klein/lilyenv/internal/layout"
	"github.com/frederic-klein/lilyenv/internal/python"
	"github.com/frederic-klein/lilyenv/internal/resolver"
	"github.com/frederic-klein/lilyenv/internal/venv"
)

// ReleaseSource lists the distributions one provider offers. The second
// return value carries per-entry parse failures that did not abort the
// listing.
type ReleaseSource interface {
	List() ([]python.Release, []error, error)
}

// Installer wires the providers, downloader and layout together.
type Installer struct {
	layout    layout.Layout
	cpython   ReleaseSource
	pypy      ReleaseSource
	downloads *downloader.Downloader
	log       func(format string, args ...interface{})
	warnings  io.Writer
}

// New creates an installer. log receives verbose progress messages and may
// be nil.
func New(l layout.Layout, cpython, pypy ReleaseSource, downloads *downloader.Downloader, log func(string, ...interface{})) *Installer {
	if log == nil {
		log = func(string, ...interface{}) {}
	}
	return &Installer{
		layout:    l,
		cpython:   cpython,
		pypy:      pypy,
		downloads: downloads,
		log:       log,
		warnings:  os.Stderr,
	}
}

func (ins *Installer) source(i python.Interpreter) ReleaseSource {
	if i == python.PyPy {
		return ins.pypy
	}
	return ins.cpython
}

// EnsureInstalled makes sure a distribution satisfying the requested version
// is installed and returns its directory. The installation is keyed by the
// requested version's display string, so an existing directory for it
// short-circuits listing, download and extraction entirely.
func (ins *Installer) EnsureInstalled(requested python.Version) (string, error) {
	installDir := ins.layout.InstalledDir(requested)
	if ins.layout.IsInstalled(requested) {
		ins.log("%s is already installed", requested)
		return installDir, nil
	}

	releases, skipped, err := ins.source(requested.Interpreter).List()
	if err != nil {
		return "", err
	}
	// Parse failures on individual upstream entries are reported even
	// without --verbose.
	for _, skip := range skipped {
		fmt.Fprintf(ins.warnings, "warning: skipping release: %v\n", skip)
	}

	release, err := resolver.Resolve(requested, releases)
	if err != nil {
		return "", err
	}
	ins.log("resolved %s to %s (%s)", requested, release.Version, release.ReleaseTag)

	archive, err := ins.downloads.EnsureCached(release)
	if err != nil {
		return "", err
	}
	ins.log("downloaded %s", release.Name)

	format := extractor.FormatFor(requested.Interpreter)
	if err := extractor.Extract(archive, installDir, format); err != nil {
		return "", err
	}
	ins.log("installed %s to %s", requested, installDir)
	return installDir, nil
}

// EnsureVirtualenv makes sure a virtualenv for the project and version
// exists and returns its directory, installing the interpreter first if
// needed.
func (ins *Installer) EnsureVirtualenv(requested python.Version, project string) (string, error) {
	venvDir := ins.layout.VirtualenvDir(project, requested)
	if ins.layout.HasVirtualenv(project, requested) {
		return venvDir, nil
	}

	installDir, err := ins.EnsureInstalled(requested)
	if err != nil {
		return "", err
	}
	interpreter, err := venv.InterpreterPath(installDir)
	if err != nil {
		return "", err
	}
	if err := venv.Create(interpreter, venvDir); err != nil {
		return "", err
	}
	ins.log("created virtualenv %s", venvDir)
	return venvDir, nil
}
