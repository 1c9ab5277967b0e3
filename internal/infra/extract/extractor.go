// Package extract turns word-processing and markup documents into plain text for the model.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

// ErrUnsupported is returned for media types no extractor handles.
var ErrUnsupported = errors.New("no extractor for media type")

// ErrEntryTooLarge means an archive member decompresses past MaxEntryBytes.
var ErrEntryTooLarge = errors.New("archive entry exceeds size limit")

const (
	DefaultMaxEntryBytes = 64 << 20

	// XML markup around each character of body text in DOCX/ODT
	markupBytesPerChar = 64
	minEntryBytes      = 1 << 20
)

// Extractor dispatches on media type.
type Extractor struct {
	html *htmlExtractor

	// MaxEntryBytes caps the decompressed size of the DOCX/ODT body member.
	MaxEntryBytes int64
}

var _ documents.TextExtractor = (*Extractor)(nil)

func New() *Extractor {
	return &Extractor{html: newHTMLExtractor(), MaxEntryBytes: DefaultMaxEntryBytes}
}

// EntryLimitFor sizes MaxEntryBytes for a text budget of maxChars runes.
func EntryLimitFor(maxChars int) int64 {
	if maxChars <= 0 {
		return DefaultMaxEntryBytes
	}
	return max(int64(maxChars)*markupBytesPerChar, minEntryBytes)
}

func (e *Extractor) entryLimit() int64 {
	if e.MaxEntryBytes <= 0 {
		return DefaultMaxEntryBytes
	}
	return e.MaxEntryBytes
}

// Extract returns the document text. Legacy .doc files are binary and have no extractor;
// callers fall back to sending the bytes inline.
func (e *Extractor) Extract(ctx context.Context, mediaType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch mt := documents.BaseMediaType(mediaType); mt {
	case documents.MediaTypeDOCX:
		text, err = docxText(data, e.entryLimit())
	case documents.MediaTypeODT:
		text, err = odtText(data, e.entryLimit())
	case documents.MediaTypeHTML:
		text, err = e.html.text(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
