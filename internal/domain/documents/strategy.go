package documents

import (
	"mime"
	"strings"
)

// Strategy decides how a document's content reaches the model.
type Strategy string

const (
	// StrategyInline sends the raw bytes (base64) with their media type.
	StrategyInline Strategy = "INLINE"
	// StrategyStructuredExtract runs a format-specific extractor, falling back to inline.
	StrategyStructuredExtract Strategy = "STRUCTURED_EXTRACT"
	// StrategyRawText decodes the bytes as UTF-8.
	StrategyRawText Strategy = "RAW_TEXT"
)

// Media types with special handling.
const (
	MediaTypePDF      = "application/pdf"
	MediaTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeDOC      = "application/msword"
	MediaTypeODT      = "application/vnd.oasis.opendocument.text"
	MediaTypeHTML     = "text/html"
	MediaTypeText     = "text/plain"
	MediaTypeMarkdown = "text/markdown"
	MediaTypeOctet    = "application/octet-stream"
)

var structured = map[string]bool{
	MediaTypeDOCX: true,
	MediaTypeDOC:  true,
	MediaTypeODT:  true,
	MediaTypeHTML: true,
}

// SelectStrategy picks the extraction strategy from the declared media type.
func SelectStrategy(mediaType string) Strategy {
	mt := BaseMediaType(mediaType)
	switch {
	case mt == MediaTypePDF:
		return StrategyInline
	case structured[mt]:
		return StrategyStructuredExtract
	default:
		return StrategyRawText
	}
}

// BaseMediaType lower-cases a media type and drops its parameters.
func BaseMediaType(mediaType string) string {
	mt := strings.TrimSpace(mediaType)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".docx": MediaTypeDOCX,
	".doc":  MediaTypeDOC,
	".odt":  MediaTypeODT,
	".html": MediaTypeHTML,
	".htm":  MediaTypeHTML,
	".txt":  MediaTypeText,
	".md":   MediaTypeMarkdown,
}

// MediaTypeByExtension maps a file extension (with dot) to a media type.
func MediaTypeByExtension(ext string) string {
	if mt, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return MediaTypeOctet
}
