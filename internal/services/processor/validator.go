package processor

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var ErrEmptyInput = errors.New("empty input")

// ValidateInput checks the raw payload before decoding and returns its
// sniffed content type.
func (p *ImageProcessor) ValidateInput(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}

	if size := int64(len(data)); size > p.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", size, p.maxFileSize)
	}

	return mimetype.Detect(data).String(), nil
}
