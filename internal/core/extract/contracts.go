package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

// TextExtractor is Stage 1: file -> page-marked text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	OCRPages   int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "pdf-mixed" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// ContactCollector is Stage 2: page-marked text -> contacts.
type ContactCollector interface {
	Collect(text string) []entity.Contact
}
