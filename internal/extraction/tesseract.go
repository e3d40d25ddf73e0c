package extraction

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Extractor interface using the Tesseract OCR
// engine via gosseract. This is the default extractor: it runs locally and
// needs no API key.
type Tesseract struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
}

// NewTesseract creates a new Tesseract Extractor instance. Languages default
// to English; dpi of 0 leaves Tesseract's own detection in place.
func NewTesseract(languages []string, dpi int) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if dpi < 0 {
		return nil, fmt.Errorf("dpi must not be negative, got %d", dpi)
	}

	return &Tesseract{
		languages:     languages,
		dpi:           dpi,
		clientFactory: gosseract.NewClient,
	}, nil
}

// ExtractText runs OCR over every page of the document and joins the page
// texts with newlines
func (t *Tesseract) ExtractText(data []byte, contentType string) (string, error) {
	pages, err := preparePageImages(data, contentType)
	if err != nil {
		return "", err
	}

	// One client for the whole document to amortize Tesseract init costs
	client := t.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting OCR languages: %w", err)
	}
	if t.dpi > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(t.dpi)); err != nil {
			return "", fmt.Errorf("setting OCR dpi: %w", err)
		}
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		if err := client.SetImageFromBytes(page); err != nil {
			return "", fmt.Errorf("setting page %d image: %w", i+1, err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("recognizing page %d: %w", i+1, err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}

	return strings.Join(texts, "\n"), nil
}

// Close closes the Tesseract extractor (clients are per-call, nothing to release)
func (t *Tesseract) Close() error {
	return nil
}
