package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contacts-extractor/internal/core/ocr"
)

type stubSource struct {
	res ocr.ExtractionResult
	err error
	got string
}

func (s *stubSource) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	s.got = path
	return s.res, s.err
}

func TestOCRAdapter_Extract(t *testing.T) {
	src := &stubSource{res: ocr.ExtractionResult{
		Text:       "\n--- Page 1 ---\nSara Lee",
		Pages:      1,
		OCRPages:   1,
		SourceType: "PDF",
		Method:     "pdf-ocr",
		Language:   "eng",
		Duration:   time.Second,
		Warnings:   []string{"page 1: pdftotext: exit status 1"},
		Confidence: 0.3,
	}}
	a := NewOCRAdapter(src, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := a.Extract(context.Background(), "/tmp/cards.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cards.pdf", src.got)
	assert.Equal(t, src.res.Text, got.Text)
	assert.Equal(t, 1, got.OCRPages)
	assert.Equal(t, "pdf-ocr", got.Method)
	assert.Equal(t, float32(0.3), got.Confidence)
	assert.Len(t, got.Warnings, 1)
}

func TestOCRAdapter_ExtractError(t *testing.T) {
	boom := errors.New("boom")
	a := NewOCRAdapter(&stubSource{err: boom}, nil)

	got, err := a.Extract(context.Background(), "x.png")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got.Text)
}
