// Package preprocess turns photographs and scans of deposit slips into
// binarized grayscale pages suited to OCR. Each Strategy is one fixed recipe;
// the OCR orchestrator runs several and keeps whichever transcribes best.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Strategy names.
const (
	Standard     = "standard"
	HighContrast = "high-contrast"
	Denoised     = "denoised"
	Sharpened    = "sharpened"
	Dilated      = "dilated"
)

// ErrEmptyImage is returned for nil or zero-sized input.
var ErrEmptyImage = errors.New("preprocess: empty image")

// ErrUnknownStrategy is returned by ByName for unregistered names.
var ErrUnknownStrategy = errors.New("preprocess: unknown strategy")

// Strategy is a named preprocessing recipe.
type Strategy struct {
	name  string
	apply func(image.Image) *image.Gray
}

// Name returns the strategy's registry name.
func (s Strategy) Name() string { return s.name }

// Apply runs the recipe. The result is always an *image.Gray whose pixels
// are 0 (ink) or 255 (paper).
func (s Strategy) Apply(img image.Image) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return s.apply(img), nil
}

var registry = []Strategy{
	{Standard, func(img image.Image) *image.Gray {
		return Binarize(ToGray(img))
	}},
	{HighContrast, func(img image.Image) *image.Gray {
		return Binarize(ToGray(imaging.AdjustContrast(img, 40)))
	}},
	{Denoised, func(img image.Image) *image.Gray {
		return Binarize(Median3(ToGray(img)))
	}},
	{Sharpened, func(img image.Image) *image.Gray {
		return Binarize(ToGray(imaging.Sharpen(img, 1.0)))
	}},
	{Dilated, func(img image.Image) *image.Gray {
		return DilateInk(Binarize(ToGray(img)), 2)
	}},
}

// All returns every strategy in canonical order.
func All() []Strategy {
	return append([]Strategy(nil), registry...)
}

// Names returns the canonical strategy names.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.name
	}
	return names
}

// ByName looks up a strategy.
func ByName(name string) (Strategy, error) {
	for _, s := range registry {
		if s.name == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Select resolves names in the order given. An empty list selects All.
func Select(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, err := ByName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Limit downsizes img so neither side exceeds maxDim. Smaller images and a
// non-positive maxDim return img unchanged.
func Limit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}
