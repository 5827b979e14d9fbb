package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText picks the extraction path by content type. Plain text
// passes through untouched.
func (te *TextExtractor) ExtractText(data []byte, mimeType string) (string, error) {
	switch {
	case mimeType == "application/pdf":
		return te.ExtractFromPDF(data)
	case strings.HasPrefix(mimeType, "text/"), mimeType == "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
}

func (te *TextExtractor) ExtractFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var fullText strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		fullText.WriteString(text)
		fullText.WriteString("\n")
	}

	return fullText.String(), nil
}
