package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/convert"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/extract"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/ingest"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

// Archiver turns a ZIP of card images into a PDF.
type Archiver interface {
	ZipToPDF(ctx context.Context, zipPath, outPDF string) (convert.ConvertResult, error)
}

// Result is the outcome of processing one input.
type Result struct {
	RunID      uuid.UUID // uuid.Nil when no run repository is configured
	SourcePath string
	SourceType string
	TextPath   string // text dump, when kept
	Method     string
	Pages      int
	Warnings   []string
	Contacts   []entity.Contact
	Duration   time.Duration
}

type ProcessorConfig struct {
	WorkDir      string // where text dumps and intermediate PDFs go
	KeepTextDump bool
}

// Processor coordinates text extraction then contact collection.
type Processor struct {
	logger    *slog.Logger
	archiver  Archiver
	text      extract.TextExtractor
	collector extract.ContactCollector
	runs      repository.RunRepository
	cfg       ProcessorConfig
}

// NewProcessor wires the stages. runs may be nil, in which case nothing is persisted.
func NewProcessor(
	logger *slog.Logger,
	archiver Archiver,
	text extract.TextExtractor,
	collector extract.ContactCollector,
	runs repository.RunRepository,
	cfg ProcessorConfig,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "./tmp"
	}
	return &Processor{
		logger:    logger,
		archiver:  archiver,
		text:      text,
		collector: collector,
		runs:      runs,
		cfg:       cfg,
	}
}

// ProcessFile extracts contacts from a ZIP of card images, a PDF, a single
// card image, or a previously written page-marked text dump.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, filepath.Ext(path))
	}

	res := &Result{SourcePath: path, SourceType: format}
	runID, err := p.startRun(ctx, path, format)
	res.RunID = runID
	logger := p.logger.With("path", path, "source_type", format)
	if runID != uuid.Nil {
		ctx = common.WithRunID(ctx, runID.String())
		logger = logger.With("run_id", runID)
	}
	if err != nil {
		logger.Error("processor.start.failed", "error", err)
		p.fail(ctx, runID, err)
		return res, err
	}

	text, err := p.extractText(ctx, path, format, res)
	if err != nil {
		logger.Error("processor.text.failed", "error", err)
		p.fail(ctx, runID, err)
		return res, err
	}
	if runID != uuid.Nil {
		if err := p.runs.MarkTextExtracted(ctx, runID, repository.TextOutcome{
			Method:    res.Method,
			Pages:     res.Pages,
			TextBytes: len(text),
		}); err != nil {
			logger.Error("processor.persist.failed", "error", err)
			p.fail(ctx, runID, err)
			return res, err
		}
	}

	if p.cfg.KeepTextDump {
		dump, err := p.writeTextDump(path, text)
		if err != nil {
			logger.Warn("failed to write text dump", "error", err)
			res.Warnings = append(res.Warnings, "text dump: "+err.Error())
		} else {
			res.TextPath = dump
		}
	}

	res.Contacts = p.collector.Collect(text)
	if runID != uuid.Nil {
		if err := p.runs.FinishSuccess(ctx, runID, res.Contacts); err != nil {
			logger.Error("processor.persist.failed", "error", err)
			p.fail(ctx, runID, err)
			return res, err
		}
	}

	res.Duration = time.Since(start)
	logger.Info("processor.ok",
		"method", res.Method,
		"pages", res.Pages,
		"contacts", len(res.Contacts),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ProcessText collects contacts from page-marked text that is already in memory.
func (p *Processor) ProcessText(ctx context.Context, source, text string) (*Result, error) {
	start := time.Now()
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", common.ErrInvalidInput)
	}
	res := &Result{SourcePath: source, SourceType: constants.TXT, Method: "text", Pages: countPages(text)}

	var runID uuid.UUID
	if p.runs != nil {
		run, err := p.runs.StartRun(ctx, repository.NewRun{
			SourcePath:  source,
			SourceType:  constants.TXT,
			ContentHash: ingest.HashBytes([]byte(text)),
		})
		if err != nil {
			return nil, err
		}
		runID = run.ID
		res.RunID = runID
		if err := p.runs.MarkTextExtracted(ctx, runID, repository.TextOutcome{Method: res.Method, Pages: res.Pages, TextBytes: len(text)}); err != nil {
			p.fail(ctx, runID, err)
			return res, err
		}
	}
	res.Contacts = p.collector.Collect(text)
	if runID != uuid.Nil {
		if err := p.runs.FinishSuccess(ctx, runID, res.Contacts); err != nil {
			p.fail(ctx, runID, err)
			return res, err
		}
	}
	res.Duration = time.Since(start)
	common.LoggerFromContext(ctx, p.logger).Info("processor.text.ok",
		"source", source,
		"run_id", runID,
		"contacts", len(res.Contacts),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (p *Processor) startRun(ctx context.Context, path, format string) (uuid.UUID, error) {
	if p.runs == nil {
		return uuid.Nil, nil
	}
	sum, _, err := ingest.HashFile(path)
	if err != nil {
		return uuid.Nil, err
	}
	run, err := p.runs.StartRun(ctx, repository.NewRun{SourcePath: path, SourceType: format, ContentHash: sum})
	if err != nil {
		return uuid.Nil, err
	}
	if err := p.runs.MarkRunning(ctx, run.ID); err != nil {
		return run.ID, err
	}
	return run.ID, nil
}

func (p *Processor) fail(ctx context.Context, runID uuid.UUID, cause error) {
	if runID == uuid.Nil {
		return
	}
	// the run is recorded even when the caller's context is already done
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.runs.FinishFailure(ctx, runID, cause.Error()); err != nil {
		p.logger.Error("failed to record run failure", "run_id", runID, "error", err)
	}
}

func (p *Processor) extractText(ctx context.Context, path, format string, res *Result) (string, error) {
	switch format {
	case constants.TXT:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		res.Method = "text"
		res.Pages = countPages(string(b))
		return string(b), nil

	case constants.ZIP:
		if p.archiver == nil {
			return "", fmt.Errorf("%w: zip input needs a converter", common.ErrUnsupportedFormat)
		}
		if err := os.MkdirAll(p.cfg.WorkDir, 0o755); err != nil {
			return "", err
		}
		tmp, err := os.CreateTemp(p.cfg.WorkDir, "temp_"+baseName(path)+"_*.pdf")
		if err != nil {
			return "", err
		}
		pdfPath := tmp.Name()
		_ = tmp.Close()
		defer func() {
			if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("failed to remove intermediate pdf", "path", pdfPath, "error", err)
			}
		}()

		conv, err := p.archiver.ZipToPDF(ctx, path, pdfPath)
		res.Warnings = append(res.Warnings, conv.Warnings...)
		if err != nil {
			return "", fmt.Errorf("convert zip: %w", err)
		}
		return p.extractWithOCR(ctx, pdfPath, res)

	default:
		return p.extractWithOCR(ctx, path, res)
	}
}

func (p *Processor) extractWithOCR(ctx context.Context, path string, res *Result) (string, error) {
	if p.text == nil {
		return "", fmt.Errorf("%w: no text extractor configured", common.ErrUnsupportedFormat)
	}
	r, err := p.text.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	res.Method = r.Method
	res.Pages = r.Pages
	res.Warnings = append(res.Warnings, r.Warnings...)
	return r.Text, nil
}

func (p *Processor) writeTextDump(src, text string) (string, error) {
	if err := os.MkdirAll(p.cfg.WorkDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(p.cfg.WorkDir, baseName(src)+"_text.txt")
	if filepath.Clean(out) == filepath.Clean(src) {
		return src, nil
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func countPages(text string) int {
	n := strings.Count(text, "--- Page ")
	if n == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return n
}
