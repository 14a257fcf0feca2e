package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/extract"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/ocr"
)

// runocr prints the page-marked text of a PDF or image, without collecting contacts.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <pdf-or-image>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Extract.JobTimeout)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:           cfg.OCR.Pdftotext,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.Language,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: true,
	}, logger)
	textExtractor := extract.NewOCRAdapter(ocrx, logger)

	start := time.Now()
	res, err := textExtractor.Extract(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"ocr_pages", res.OCRPages,
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Print(res.Text)
}
