package domain

import (
	"fmt"
	"strings"
)

// SourceKind identifies what a generation job is built from.
type SourceKind string

// Supported source kinds
const (
	SourceKindYouTube SourceKind = "youtube"
	SourceKindText    SourceKind = "text"
	SourceKindFile    SourceKind = "file"
)

// LargeFileThreshold is the size above which a file upload is flagged to the
// user. It is advisory only: the job service compresses large media itself.
const LargeFileThreshold = 10 * 1024 * 1024

// ParseSourceKind converts a raw string into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case SourceKindYouTube, SourceKindText, SourceKindFile:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown source kind %q", ErrInvalidSubmission, s)
	}
}

// SubmissionInput is one generation request. Exactly one of URL, Text, or
// File is set, matching Kind.
type SubmissionInput struct {
	Kind     SourceKind
	URL      string
	Text     string
	File     []byte
	Filename string
}

// NewYouTubeInput builds a submission for a video link.
func NewYouTubeInput(url string) SubmissionInput {
	return SubmissionInput{Kind: SourceKindYouTube, URL: url}
}

// NewTextInput builds a submission for pasted notes.
func NewTextInput(text string) SubmissionInput {
	return SubmissionInput{Kind: SourceKindText, Text: text}
}

// NewFileInput builds a submission for an uploaded file.
func NewFileInput(filename string, data []byte) SubmissionInput {
	return SubmissionInput{Kind: SourceKindFile, File: data, Filename: filename}
}

// Validate checks that exactly one payload is present, non-empty, and
// matches the source kind. File size is not limited here.
func (in SubmissionInput) Validate() error {
	present := 0
	if strings.TrimSpace(in.URL) != "" {
		present++
	}
	if strings.TrimSpace(in.Text) != "" {
		present++
	}
	if len(in.File) > 0 {
		present++
	}

	switch in.Kind {
	case SourceKindYouTube:
		if strings.TrimSpace(in.URL) == "" {
			return fmt.Errorf("%w: youtube submission requires a url", ErrInvalidSubmission)
		}
	case SourceKindText:
		if strings.TrimSpace(in.Text) == "" {
			return fmt.Errorf("%w: text submission requires a body", ErrInvalidSubmission)
		}
	case SourceKindFile:
		if len(in.File) == 0 {
			return fmt.Errorf("%w: file submission requires content", ErrInvalidSubmission)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidSubmission, in.Kind)
	}

	if present != 1 {
		return fmt.Errorf("%w: exactly one of url, text or file must be set", ErrInvalidSubmission)
	}

	return nil
}

// LargeFile reports whether a file submission exceeds LargeFileThreshold.
func (in SubmissionInput) LargeFile() bool {
	return in.Kind == SourceKindFile && len(in.File) > LargeFileThreshold
}
