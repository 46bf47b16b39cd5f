// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fluffycraft/blockbuild/internal/archive"
	"github.com/fluffycraft/blockbuild/internal/config"
	"github.com/fluffycraft/blockbuild/internal/fsutil"
	"github.com/fluffycraft/blockbuild/internal/issue"
)

const (
	// PackageTmpName is the scratch archive under .blockbuild.
	PackageTmpName = "package.tmp"
	// PackageExt is the extension of the packaged artifact.
	PackageExt = ".mcaddon"
)

// ArtifactPath returns <outPath>/<packName>.mcaddon.
func ArtifactPath(cfg *config.Config) string {
	return filepath.Join(cfg.OutPath, cfg.PackName+PackageExt)
}

// DevelopmentPath returns the com.mojang directory a pack is mirrored to.
func DevelopmentPath(cfg *config.Config, p config.PackType) string {
	return filepath.Join(cfg.ComMojangPath, p.DevelopmentDir(), cfg.PackName)
}

// mirror replaces the development copy of every built pack. Failures are
// logged and do not fail the build; all copies finish before it returns.
func (b *Builder) mirror(ctx context.Context, cfg *config.Config) []string {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		mirrored []string
	)

	for _, p := range cfg.Packs {
		src := cfg.PackOutputDir(p)
		if !fsutil.DirExists(src) {
			continue
		}
		dst := DevelopmentPath(cfg, p)

		wg.Go(func() {
			if err := fsutil.ReplaceDir(ctx, src, dst); err != nil {
				b.logger.Warn("failed to mirror pack", "pack", p, "dest", dst, "err", err)
				return
			}
			b.logger.Debug("mirrored pack", "pack", p, "dest", dst)

			mu.Lock()
			mirrored = append(mirrored, dst)
			mu.Unlock()
		})
	}
	wg.Wait()

	return mirrored
}

// pack zips outPath into .blockbuild/package.tmp and moves it to the
// artifact path.
func (b *Builder) pack(ctx context.Context, cfg *config.Config) (string, error) {
	tmp := filepath.Join(cfg.WorkDir(), PackageTmpName)
	if _, err := os.Stat(tmp); err == nil {
		cause := issue.NewErrorContext().
			WithOperation("create package").
			WithResource(tmp).
			WithSuggestion("Remove the file left behind by an interrupted build and try again").
			BuildError()
		return "", issue.NewInternalError(issue.CodeInternalPackageTmpExists,
			"Temporary package file already exists.", cause)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", issue.NewInternalError(issue.CodeInternalArchiverError, "Failed to inspect the temporary package file.", err)
	}

	if err := os.MkdirAll(cfg.WorkDir(), 0o755); err != nil {
		return "", issue.NewInternalError(issue.CodeInternalArchiverError, "Failed to create the work directory.", err)
	}

	warnings, err := archive.Zip(ctx, cfg.OutPath, tmp, archive.Options{Exclude: []string{"*" + PackageExt}})
	if err != nil {
		return "", issue.NewInternalError(issue.CodeInternalArchiverError, "Failed to archive the output directory.", err)
	}
	if len(warnings) > 0 {
		_ = os.Remove(tmp)
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = w.String()
		}
		return "", issue.NewInternalError(issue.CodeInternalArchiverWarning,
			"Archiver reported a warning: "+strings.Join(msgs, "; "), nil)
	}

	artifact := ArtifactPath(cfg)
	if err := os.Rename(tmp, artifact); err != nil {
		_ = os.Remove(tmp)
		return "", issue.NewInternalError(issue.CodeInternalArchiverError,
			fmt.Sprintf("Failed to move the package to %s.", artifact), err)
	}

	b.logger.Info("packaged", "artifact", artifact)
	return artifact, nil
}
