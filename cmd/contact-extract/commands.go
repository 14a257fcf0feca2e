package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/async"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/export"
	"github.com/joseph-ayodele/contacts-extractor/internal/ingest"
)

// ProcessCmd extracts the contacts of a single input file.
type ProcessCmd struct {
	Input  string `arg:"" type:"existingfile" help:"ZIP, PDF, image or text dump to process."`
	Output string `arg:"" optional:"" help:"Output workbook. Defaults to <base>_contacts.xlsx."`
	JSON   bool   `help:"Also write the contacts as JSON next to the workbook."`
}

func (c *ProcessCmd) Run(ctx context.Context, g *Globals) error {
	e, cleanup, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	out := c.Output
	if out == "" {
		out = defaultOutput(c.Input)
	}

	res, err := e.processor.ProcessFile(ctx, c.Input)
	if err != nil {
		return fmt.Errorf("process %s: %w", c.Input, err)
	}
	if err := e.exporter.SaveXLSX(out, res.Contacts); err != nil {
		return err
	}
	if c.JSON {
		if err := e.exporter.SaveJSON(jsonPath(out), documentFor(res)); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Summary:\n")
	fmt.Fprintf(stdout, "  Input file:         %s\n", c.Input)
	if res.TextPath != "" {
		fmt.Fprintf(stdout, "  Text file:          %s\n", res.TextPath)
	}
	fmt.Fprintf(stdout, "  Excel file:         %s\n", out)
	fmt.Fprintf(stdout, "  Method:             %s (%d pages)\n", res.Method, res.Pages)
	fmt.Fprintf(stdout, "  Contacts extracted: %d\n", len(res.Contacts))
	if res.RunID != uuid.Nil {
		fmt.Fprintf(stdout, "  Run ID:             %s\n", res.RunID)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "  warning: %s\n", w)
	}
	return nil
}

// BatchCmd processes a directory of card files on the worker queue.
type BatchCmd struct {
	Dir     string `required:"" type:"existingdir" help:"Directory to scan for card files."`
	Out     string `help:"Output workbook. Defaults to contacts.xlsx next to --dir."`
	Workers int    `help:"Files processed concurrently (overrides QUEUE_WORKERS)."`
	All     bool   `help:"Also process files whose content appears twice in the directory."`
}

type batchItem struct {
	order    int
	contacts []entity.Contact
	err      error
}

// collectBatch orders finished items by input position. A slot with no
// finished item counts as a failure.
func collectBatch(items []batchItem, queued int) ([]entity.Contact, int) {
	ordered := make([]*batchItem, queued)
	for i := range items {
		if it := &items[i]; it.order >= 0 && it.order < queued {
			ordered[it.order] = it
		}
	}
	var (
		contacts []entity.Contact
		failures int
	)
	for _, it := range ordered {
		if it == nil || it.err != nil {
			failures++
			continue
		}
		contacts = append(contacts, it.contacts...)
	}
	return contacts, failures
}

func (c *BatchCmd) Run(ctx context.Context, g *Globals) error {
	e, cleanup, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	out := c.Out
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(c.Dir)), "contacts.xlsx")
	}
	workers := c.Workers
	if workers <= 0 {
		workers = e.cfg.Extract.QueueWorkers
	}

	ingestor := ingest.NewFSIngestor(e.runs, e.logger)
	results, stats, err := ingestor.IngestDirectory(ctx, c.Dir, true)
	if err != nil {
		return err
	}
	e.logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	order := map[string]int{}
	var (
		mu    sync.Mutex
		items []batchItem
	)
	queue := async.NewProcessorQueue(e.processor, e.logger,
		async.WithWorkers(workers),
		async.WithProcessTimeout(e.cfg.Extract.JobTimeout),
		async.WithResultHandler(func(job async.Job, res *core.Result, err error) {
			item := batchItem{order: order[job.Path], err: err}
			if res != nil {
				item.contacts = res.Contacts
			}
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
		}),
	)

	queued := 0
	for _, r := range results {
		if r.Err != "" || (r.Duplicate && !c.All) {
			continue
		}
		order[r.SourcePath] = queued
		queued++
	}
	for _, r := range results {
		if r.Err != "" || (r.Duplicate && !c.All) {
			continue
		}
		if err := queue.Enqueue(ctx, async.Job{Path: r.SourcePath, SubmittedAt: time.Now()}); err != nil {
			queue.Shutdown(context.Background())
			return err
		}
	}
	queue.Shutdown(ctx)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted before all files finished: %w", err)
	}

	mu.Lock()
	contacts, failures := collectBatch(items, queued)
	mu.Unlock()
	if queued > 0 && failures == queued {
		return fmt.Errorf("all %d files failed to process", queued)
	}
	if err := e.exporter.SaveXLSX(out, contacts); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Batch processing complete!\n")
	fmt.Fprintf(stdout, "- Files matched:   %d\n", stats.Matched)
	fmt.Fprintf(stdout, "- Files processed: %d\n", queued-failures)
	fmt.Fprintf(stdout, "- Duplicates:      %d\n", stats.Deduplicated)
	fmt.Fprintf(stdout, "- Failures:        %d\n", failures+int(stats.Failed))
	fmt.Fprintf(stdout, "- Contacts:        %d\n", len(contacts))
	fmt.Fprintf(stdout, "- Output:          %s\n", out)
	return nil
}

// ExportCmd writes the contacts of a stored run.
type ExportCmd struct {
	RunID string `name:"run-id" required:"" help:"Extraction run ID."`
	Out   string `required:"" help:"Output file."`
	JSON  bool   `help:"Write JSON instead of a workbook."`
}

func (c *ExportCmd) Run(ctx context.Context, g *Globals) error {
	id, err := uuid.Parse(c.RunID)
	if err != nil {
		return fmt.Errorf("%w: run id must be a UUID", common.ErrInvalidInput)
	}
	e, cleanup, err := g.open(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	var b []byte
	if c.JSON {
		b, err = e.exporter.ExportRunJSON(ctx, id)
	} else {
		b, err = e.exporter.ExportRunXLSX(ctx, id)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	fmt.Fprintf(stdout, "Exported run %s to %s\n", id, c.Out)
	return nil
}

func defaultOutput(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return base + "_contacts.xlsx"
}

func jsonPath(xlsx string) string {
	return strings.TrimSuffix(xlsx, filepath.Ext(xlsx)) + ".json"
}

func documentFor(res *core.Result) export.ContactsDocument {
	doc := export.ContactsDocument{Source: res.SourcePath, Contacts: res.Contacts}
	if res.RunID != uuid.Nil {
		doc.RunID = res.RunID.String()
	}
	return doc
}
