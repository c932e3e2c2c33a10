//go:build !tesseract

package tesseract

import (
	"context"
	"image"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
)

// Available reports whether the Tesseract backend is linked.
const Available = false

// Engine is a placeholder that fails every call.
type Engine struct{}

// New returns ocr.ErrNoBackend alongside a usable placeholder engine.
func New(Options) (*Engine, error) {
	return &Engine{}, ocr.ErrNoBackend
}

// Recognize implements ocr.Engine.
func (*Engine) Recognize(context.Context, image.Image, ocr.Config) (ocr.Recognition, error) {
	return ocr.Recognition{}, ocr.ErrNoBackend
}
