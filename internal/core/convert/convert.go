// Package convert turns archives of scanned business cards into a single PDF,
// one page per image.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
)

// mmPerPixel sizes a page to its image at 96 DPI.
const mmPerPixel = 0.264583

// maxEntrySize bounds a single decompressed archive entry.
const maxEntrySize = 64 << 20

type ConvertResult struct {
	PDFPath  string
	Images   int // pages written
	Skipped  int // image entries that could not be decoded
	Warnings []string
}

type Converter struct {
	logger *slog.Logger
}

func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// ZipToPDF extracts the images of zipPath in name order and writes them to
// outPDF as one page each.
func (c *Converter) ZipToPDF(ctx context.Context, zipPath, outPDF string) (ConvertResult, error) {
	res := ConvertResult{PDFPath: outPDF}

	tmpDir, err := os.MkdirTemp("", "ce-zip-*")
	if err != nil {
		return res, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	files, err := c.unzipImages(zipPath, tmpDir)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, fmt.Errorf("%s: %w", zipPath, common.ErrNoImages)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page, err := loadPage(f)
		if err != nil {
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", filepath.Base(f), err))
			c.logger.Warn("skipping unreadable image", "file", filepath.Base(f), "error", err)
			continue
		}
		w := float64(page.width) * mmPerPixel
		h := float64(page.height) * mmPerPixel
		name := fmt.Sprintf("img%03d", i)

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		opts := fpdf.ImageOptions{ImageType: page.kind}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.data))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
		if pdf.Err() {
			return res, fmt.Errorf("add page for %s: %w", filepath.Base(f), pdf.Error())
		}
		res.Images++
	}
	if res.Images == 0 {
		return res, fmt.Errorf("%s: no decodable images: %w", zipPath, common.ErrNoImages)
	}

	if err := os.MkdirAll(filepath.Dir(outPDF), 0o755); err != nil {
		return res, err
	}
	if err := pdf.OutputFileAndClose(outPDF); err != nil {
		return res, fmt.Errorf("write pdf: %w", err)
	}
	c.logger.Info("convert.zip.ok", "zip", zipPath, "pdf", outPDF, "pages", res.Images, "skipped", res.Skipped)
	return res, nil
}

// unzipImages writes the image entries of the archive under dir and returns
// their paths sorted by archive name.
func (c *Converter) unzipImages(zipPath, dir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidInput, zipPath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	type entry struct{ name, path string }
	var entries []entry
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(dir, zf.Name)
		if err != nil {
			return nil, err
		}
		if !constants.IsImageExt(path.Ext(zf.Name)) || strings.HasPrefix(path.Base(zf.Name), ".") {
			continue
		}
		if err := extractEntry(zf, target); err != nil {
			return nil, fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		entries = append(entries, entry{name: zf.Name, path: target})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	c.logger.Debug("unzipped images", "zip", zipPath, "count", len(out))
	return out, nil
}

// safeJoin rejects entries that would land outside dir.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: archive entry %q escapes extraction dir", common.ErrInvalidInput, name)
	}
	return target, nil
}

func extractEntry(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxEntrySize {
		err = fmt.Errorf("entry larger than %d bytes", maxEntrySize)
	}
	return err
}

type pageImage struct {
	data          []byte
	kind          string // fpdf image type
	width, height int
}

// loadPage decodes an image fully. JPEGs are embedded as-is; everything else
// is re-encoded as 8-bit PNG, which fpdf always accepts.
func loadPage(file string) (pageImage, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return pageImage{}, err
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return pageImage{}, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return pageImage{}, fmt.Errorf("empty image")
	}
	if format == "jpeg" {
		return pageImage{data: raw, kind: "JPG", width: b.Dx(), height: b.Dy()}, nil
	}

	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return pageImage{}, fmt.Errorf("re-encode png: %w", err)
	}
	return pageImage{data: buf.Bytes(), kind: "PNG", width: b.Dx(), height: b.Dy()}, nil
}
