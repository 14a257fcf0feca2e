package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	Runs   repository.RunRepository // optional; used to find earlier runs of the same content
	logger *slog.Logger
}

func NewFSIngestor(runs repository.RunRepository, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Runs: runs, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}

	ext := filepath.Ext(abs)
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	st, err := os.Stat(abs)
	if err != nil {
		return out, err
	}
	if st.IsDir() {
		return out, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, abs)
	}

	sum, size, err := HashFile(abs)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}

	out = IngestionResult{
		SourcePath: abs,
		FileExt:    strings.TrimPrefix(strings.ToLower(ext), "."),
		HashHex:    sum,
		Size:       size,
		ModifiedAt: st.ModTime().UTC(),
	}

	if i.Runs != nil {
		run, err := i.Runs.GetRunByHash(ctx, sum)
		switch {
		case err == nil:
			out.PreviousRunID = run.ID.String()
			out.PreviousStatus = run.Status
		case !errors.Is(err, common.ErrNotFound):
			i.logger.Warn("previous run lookup failed", "path", abs, "error", err)
		}
	}
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
// Files whose content was already seen during the walk are flagged as duplicates.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("%w: root_path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats
	seen := map[string]string{} // hash -> first path

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if first, ok := seen[r.HashHex]; ok {
			r.Duplicate = true
			r.DuplicateOf = first
			stats.Deduplicated++
		} else {
			seen[r.HashHex] = r.SourcePath
		}

		results = append(results, r)
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("directory ingested",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"duplicates", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
