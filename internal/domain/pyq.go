package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PYQExtensions lists the file types accepted for past-paper analysis.
var PYQExtensions = []string{"pdf", "docx", "txt", "csv"}

// ErrInvalidPYQ is returned when a past-paper analysis request has nothing
// the analyzer can read.
var ErrInvalidPYQ = fmt.Errorf("%w: invalid past-paper request", ErrValidation)

// PYQFile is one uploaded question paper.
type PYQFile struct {
	Filename string
	Data     []byte
}

// PYQRequest asks for an analysis of previous-year question papers. Files,
// a shared Drive folder link, or both may be supplied.
type PYQRequest struct {
	Files     []PYQFile
	DriveLink string
}

// Validate checks that at least one readable source is present. Every file
// must be non-empty and carry an accepted extension.
func (r PYQRequest) Validate() error {
	if len(r.Files) == 0 && strings.TrimSpace(r.DriveLink) == "" {
		return fmt.Errorf("%w: upload files or provide a drive link", ErrInvalidPYQ)
	}
	for _, f := range r.Files {
		if len(f.Data) == 0 {
			return fmt.Errorf("%w: %q is empty", ErrInvalidPYQ, f.Filename)
		}
		if !acceptedPYQFile(f.Filename) {
			return fmt.Errorf("%w: %q must be one of %s", ErrInvalidPYQ, f.Filename,
				strings.Join(PYQExtensions, ", "))
		}
	}
	return nil
}

func acceptedPYQFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, accepted := range PYQExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}
