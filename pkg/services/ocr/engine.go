// Package ocr wraps external OCR backends behind a single contract and turns
// their heterogeneous output into one JSON schema.
package ocr

import (
	"context"
	"errors"

	"docintel/pkg/models"
)

// ErrEngineUnavailable is returned when a backend cannot be used at all, for
// example because its library, service or credentials are missing.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (models.EngineResult, error)
}

// Checker is implemented by engines whose availability can only be verified
// by contacting the backend.
type Checker interface {
	Check(ctx context.Context) error
}
