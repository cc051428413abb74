package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// OOXML documents are zip archives of XML parts. The extractors below walk
// the relevant part and collect text runs: <w:t> for word-processor
// documents, <a:t> for presentation slides.

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractDocx extracts paragraph text from word/document.xml.
func extractDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	part, err := openZipPart(archive, "word/document.xml")
	if err != nil {
		return "", err
	}
	defer part.Close()

	text, err := collectTextRuns(part, "t", "p")
	if err != nil {
		return "", fmt.Errorf("failed to parse docx document: %w", err)
	}
	return text, nil
}

// extractPptx extracts slide text in slide order.
func extractPptx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx archive: %w", err)
	}

	type slidePart struct {
		number int
		file   *zip.File
	}

	var slides []slidePart
	for _, f := range archive.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slidePart{number: n, file: f})
	}

	if len(slides) == 0 {
		return "", fmt.Errorf("pptx archive contains no slides")
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var parts []string
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open slide %d: %w", slide.number, err)
		}
		text, err := collectTextRuns(rc, "t", "p")
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse slide %d: %w", slide.number, err)
		}
		if text != "" {
			parts = append(parts, fmt.Sprintf("Slide %d:\n%s", slide.number, text))
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func openZipPart(archive *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range archive.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive part %q not found", name)
}

// collectTextRuns streams XML tokens, appending character data inside
// textElement and a newline at the end of each paragraphElement.
func collectTextRuns(r io.Reader, textElement, paragraphElement string) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textElement {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textElement {
				inText = false
			}
			if t.Name.Local == paragraphElement {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
