package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/contacts-extractor/internal/core/ocr"
)

// LowConfidence is the OCR confidence below which a result is flagged in logs.
const LowConfidence float32 = 0.5

type pageSource interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

var _ TextExtractor = (*OCRAdapter)(nil)

// OCRAdapter exposes the ocr package as a TextExtractor.
type OCRAdapter struct {
	src    pageSource
	logger *slog.Logger
}

func NewOCRAdapter(src pageSource, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{src: src, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.src.Extract(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	out := TextExtractionResult(r)

	log := a.logger.With("path", path, "method", out.Method, "pages", out.Pages)
	if n := len(out.Warnings); n > 0 {
		log.Warn("extract.text.warnings", "count", n, "first", out.Warnings[0])
	}
	if out.OCRPages > 0 && out.Confidence < LowConfidence {
		log.Info("extract.text.low_confidence", "ocr_pages", out.OCRPages, "confidence", out.Confidence)
	}
	return out, nil
}
