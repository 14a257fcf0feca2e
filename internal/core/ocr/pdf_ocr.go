package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contacts-extractor/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Language: e.cfg.TesseractLang}

	n, err := e.pageCount(path)
	if err != nil {
		return res, fmt.Errorf("count pdf pages: %w", err)
	}
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf has %d pages, only the first %d are read", n, e.cfg.MaxPages))
		n = e.cfg.MaxPages
	}

	var b strings.Builder
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		txt, ocrUsed, warns := e.pageText(ctx, path, page)
		if ocrUsed {
			res.OCRPages++
		}
		res.Warnings = append(res.Warnings, warns...)
		b.WriteString(pageMarker(page))
		b.WriteString(txt)
	}

	res.Text = b.String()
	res.Pages = n
	switch {
	case res.OCRPages == 0:
		res.Method = "pdf-text"
	case res.OCRPages == n:
		res.Method = "pdf-ocr"
	default:
		res.Method = "pdf-mixed"
	}
	res.Confidence = heuristicConfidence(res.Text)
	e.logger.Debug("pdf extracted", "path", path, "pages", n, "ocr_pages", res.OCRPages, "method", res.Method)
	return res, nil
}

// pageText returns the embedded text of one page, falling back to OCR when the
// page has none. An OCR failure is reported in-band as the page's text.
func (e *Extractor) pageText(ctx context.Context, path string, page int) (string, bool, []string) {
	var warns []string
	p := strconv.Itoa(page)

	// pdftotext -f N -l N -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, "-f", p, "-l", p, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err == nil {
		if txt := NormalizePageText(string(out)); txt != "" {
			return txt, false, nil
		}
	} else {
		warns = append(warns, fmt.Sprintf("page %d: %v", page, commandError("pdftotext", err, errb)))
	}

	txt, err := e.ocrPage(ctx, path, page)
	if err != nil {
		e.logger.Warn("ocr failed for page", "path", path, "page", page, "error", err)
		return ocrErrorText(err), true, append(warns, fmt.Sprintf("page %d: %v", page, err))
	}
	return txt, true, warns
}

func (e *Extractor) ocrPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ce-pp-*")
	if err != nil {
		return "", err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	p := strconv.Itoa(page)
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, "-f", p, "-l", p, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", commandError("pdftoppm", err, errb)
	}

	// pdftoppm zero-pads the page suffix depending on the page count
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	txt, _, err := e.tesseractOCR(ctx, matches[0])
	if err != nil {
		return "", err
	}
	return NormalizePageText(txt), nil
}
