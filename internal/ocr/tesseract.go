package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine turns a page image into text.
type Engine interface {
	Recognize(image []byte) (string, error)
}

// Tesseract recognizes text with the Tesseract engine. It requires
// tesseract-ocr and its language data to be installed.
type Tesseract struct {
	Language string // e.g. "eng" or "eng+fra"; empty uses the engine default
}

// Recognize runs OCR on image data (PNG, JPEG, TIFF). A client is created per
// call; titles are recovered at most once per document.
func (t Tesseract) Recognize(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.Language != "" {
		if err := client.SetLanguage(t.Language); err != nil {
			return "", fmt.Errorf("set language %q: %w", t.Language, err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
