package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// odtText reads content.xml. text:p and text:h close a line; text:s, text:tab and
// text:line-break stand for whitespace.
func odtText(data []byte, limit int64) (string, error) {
	content, err := openZipEntry(data, "content.xml", limit)
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		out   strings.Builder
		line  strings.Builder
		depth int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				if depth == 0 {
					line.Reset()
				}
				depth++
			case "s":
				line.WriteByte(' ')
			case "tab":
				line.WriteByte('\t')
			case "line-break":
				line.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				line.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "h" {
				depth--
				if depth == 0 {
					if s := strings.TrimSpace(line.String()); s != "" {
						out.WriteString(s)
						out.WriteByte('\n')
					}
				}
			}
		}
	}
	return out.String(), nil
}
