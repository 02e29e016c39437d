package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrValidation covers file-level rejections: wrong file type, oversized
// file, or missing required columns. Row-level problems never reject a file;
// they are absorbed into row status tags.
var ErrValidation = errors.New("validation error")

// SupportedExtensions lists accepted upload file types.
var SupportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// ValidateFile rejects uploads before any parsing happens.
func ValidateFile(filename string, sizeBytes, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return fmt.Errorf("%w: unsupported file type %q", ErrValidation, ext)
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrValidation, sizeBytes, maxBytes)
	}
	return nil
}
