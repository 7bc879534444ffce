// Package imaging converts inbound message content into the single format
// embedded in vision prompts.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

const jpegQuality = 85

// NormalizeJPEG decodes data (JPEG, PNG, or GIF) and re-encodes it as JPEG so
// the data URI handed to the vision model always carries a truthful
// image/jpeg media type.
func NormalizeJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("imaging: empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
