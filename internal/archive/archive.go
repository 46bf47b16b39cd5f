// SPDX-License-Identifier: MPL-2.0

// Package archive writes the packaged build output.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

type (
	// Options tunes Zip.
	Options struct {
		// Exclude holds doublestar patterns matched against slash-separated
		// paths relative to the archived directory.
		Exclude []string
	}

	// Warning reports an entry that was skipped without failing the archive.
	Warning struct {
		Path   string
		Reason string
	}
)

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Zip archives the contents of dir into a new file at dst. Entries are
// stored relative to dir, so dir itself is not part of the archive. Only
// regular files and directories are archived; anything else is skipped and
// reported as a warning. dst must not exist. On failure the partial file is
// removed.
func Zip(ctx context.Context, dir, dst string, opts Options) (warnings []Warning, err error) {
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	zipFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		if relPath == "." {
			return nil
		}
		zipPath := filepath.ToSlash(relPath)

		if excluded(zipPath, opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, createErr := zipWriter.Create(zipPath + "/"); createErr != nil {
				return fmt.Errorf("failed to create directory entry: %w", createErr)
			}
			return nil
		}

		if !d.Type().IsRegular() {
			warnings = append(warnings, Warning{Path: zipPath, Reason: fmt.Sprintf("skipped irregular file (%s)", d.Type())})
			return nil
		}

		return addFile(zipWriter, path, zipPath, d)
	})

	if closeErr := zipWriter.Close(); closeErr != nil && walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		return warnings, fmt.Errorf("failed to archive %s: %w", dir, walkErr)
	}

	return warnings, nil
}

func addFile(zw *zip.Writer, path, zipPath string, d fs.DirEntry) error {
	fileInfo, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	header, err := zip.FileInfoHeader(fileInfo)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = zipPath
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // Read-only file; close error non-critical

	if _, err := io.Copy(writer, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", zipPath, err)
	}
	return nil
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, path) {
			return true
		}
	}
	return false
}
