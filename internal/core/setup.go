package core

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/convert"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/extract"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/fields"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

// NewContactCollector builds the field extractor, applying the vocabulary
// override file when one is configured.
func NewContactCollector(cfg common.ExtractConfig, logger *slog.Logger) (*fields.Extractor, error) {
	vocab := fields.DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		v, err := fields.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vocab = v
		logger.Info("vocabulary loaded", "path", cfg.VocabularyPath)
	}
	return fields.NewExtractor(vocab, fields.WithWorkers(cfg.PageWorkers), fields.WithLogger(logger))
}

// NewProcessorFromConfig wires the converter, OCR extractor and collector
// described by cfg. runs may be nil.
func NewProcessorFromConfig(cfg *common.Config, runs repository.RunRepository, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	collector, err := NewContactCollector(cfg.Extract, logger)
	if err != nil {
		return nil, err
	}
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Language,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	return NewProcessor(logger,
		convert.NewConverter(logger),
		extract.NewOCRAdapter(extractor, logger),
		collector,
		runs,
		ProcessorConfig{WorkDir: cfg.Output.WorkDir, KeepTextDump: cfg.Output.KeepTextDump},
	), nil
}
