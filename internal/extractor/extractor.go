// Package extractor unpacks distribution archives into installation
// directories. The archive format is fixed by interpreter family, never
// sniffed from file contents.
package extractor

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/frederic-klein/lilyenv/internal/python"
)

// Format is the compression applied to a distribution tarball.
type Format int

const (
	GzipTar Format = iota
	Bzip2Tar
)

// FormatFor returns the archive format used by an interpreter family:
// python-build-standalone ships tar.gz, PyPy ships tar.bz2.
func FormatFor(i python.Interpreter) Format {
	if i == python.PyPy {
		return Bzip2Tar
	}
	return GzipTar
}

// Extract unpacks the archive into targetDir, preserving entry paths and
// permissions. The archive is first unpacked into a temporary sibling
// directory and renamed into place on success, so targetDir either holds a
// complete installation or does not exist.
func Extract(archivePath, targetDir string, format Format) error {
	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	tmpDir, err := os.MkdirTemp(parent, filepath.Base(targetDir)+".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// MkdirTemp creates the staging dir 0700; the installation itself must
	// be world-readable like the rest of the tree.
	if err := os.Chmod(tmpDir, 0755); err != nil {
		return fmt.Errorf("setting permissions on temp directory: %w", err)
	}

	if err := unpack(archivePath, tmpDir, format); err != nil {
		return err
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		return fmt.Errorf("installing to %s: %w", targetDir, err)
	}
	return nil
}

func unpack(archivePath, destDir string, format Format) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	var reader io.Reader
	switch format {
	case GzipTar:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("decompressing archive: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	case Bzip2Tar:
		reader = bzip2.NewReader(file)
	default:
		return fmt.Errorf("unknown archive format %d", format)
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		// Entry paths come from the archive and must stay inside destDir.
		name := filepath.Clean(header.Name)
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes the installation directory", header.Name)
		}
		target := filepath.Join(destDir, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			_, err = io.Copy(out, tarReader)
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", header.Name, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		}
	}
}
