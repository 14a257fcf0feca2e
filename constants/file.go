package constants

import "strings"

// Source formats recorded on extraction runs.
const (
	ZIP   = "ZIP"
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// FileTypes holds the allowed values for the source_type column of extraction_runs.
var FileTypes = []string{ZIP, PDF, IMAGE, TXT}

// AllowedExtensions holds the file extensions accepted as processing input.
var AllowedExtensions = map[string]struct{}{
	"zip":  {},
	"pdf":  {},
	"txt":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"gif":  {},
}

// ImageExtensions are the image types picked up from ZIP archives and OCR'd directly.
var ImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot) is a supported image type.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a file extension to one of the source formats, or "" if unsupported.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	switch {
	case ext == "zip":
		return ZIP
	case ext == "pdf":
		return PDF
	case ext == "txt":
		return TXT
	case IsImageExt(ext):
		return IMAGE
	default:
		return ""
	}
}
