package ingest

import (
	"context"
	"time"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath     string
	FileExt        string
	HashHex        string
	Size           int64
	ModifiedAt     time.Time
	Duplicate      bool   // same content seen earlier in the same walk
	DuplicateOf    string // path of the first file with that content
	PreviousRunID  string // latest stored run for this content, if any
	PreviousStatus string
	Err            string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch command and the service depend on.
type Ingestor interface {
	// IngestPath inspects a single path.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory inspects all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
