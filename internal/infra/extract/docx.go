package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// openZipEntry returns the contents of one archive member, at most limit bytes.
func openZipEntry(data []byte, name string, limit int64) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		// header sizes can lie, count what actually comes out
		b, err := io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if int64(len(b)) > limit {
			return nil, fmt.Errorf("%w: %s over %d bytes", ErrEntryTooLarge, name, limit)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// docxText reads word/document.xml, one line per paragraph. Tabs and breaks inside a
// paragraph become whitespace.
func docxText(data []byte, limit int64) (string, error) {
	doc, err := openZipEntry(data, "word/document.xml", limit)
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(bytes.NewReader(doc))
	var (
		out       strings.Builder
		para      strings.Builder
		inText    bool
		paragraph bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				paragraph = true
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if paragraph && inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraph = false
				if line := strings.TrimSpace(para.String()); line != "" {
					out.WriteString(line)
					out.WriteByte('\n')
				}
			}
		}
	}
	return out.String(), nil
}
