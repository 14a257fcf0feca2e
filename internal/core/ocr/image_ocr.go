package ocr

import (
	"context"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contacts-extractor/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warn}, err
	}
	txt = NormalizePageText(txt)

	var tessConf float32
	if e.cfg.EnableTSVConfidence {
		c, err := e.tesseractTSVConfidence(ctx, path)
		if err != nil {
			warn = append(warn, err.Error())
		}
		tessConf = c
	}

	return ExtractionResult{
		Text:       pageMarker(1) + txt,
		Pages:      1,
		OCRPages:   1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: blendConfidence(tessConf, heuristicConfidence(txt)),
	}, nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, e.tesseractArgs(path)...)
	if err != nil {
		ce := commandError("tesseract", err, errb)
		return "", []string{ce.Error()}, ce
	}
	return string(out), nil, nil
}

// tesseractTSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, error) {
	args := append(e.tesseractArgs(path), "tsv")
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		return 0, commandError("tesseract tsv", err, nil)
	}
	var sum, n float64
	lines := strings.Split(string(out), "\n")
	for _, ln := range lines[min(1, len(lines)):] {
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 || cols[10] == "" || cols[10] == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(cols[10], 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float32(sum / n / 100.0), nil
}
