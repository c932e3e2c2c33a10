package preprocess

import (
	"image"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func noiseGray(w, h int, seed int64) *image.Gray {
	r := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = uint8(r.Intn(256)) //nolint:gosec // in range
	}
	return g
}

// TestBinarize_TwoLevels verifies the output only holds ink and paper.
func TestBinarize_TwoLevels(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("binarized pixels are 0 or 255", prop.ForAll(
		func(w, h int, seed int64) bool {
			in := noiseGray(w, h, seed)
			out := Binarize(in)
			if out.Bounds() != in.Bounds() {
				return false
			}
			for _, v := range out.Pix {
				if v != 0 && v != 255 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestDilateInk_NeverLightens verifies dilation only darkens pixels.
func TestDilateInk_NeverLightens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("dilated pixels are no lighter than the input", prop.ForAll(
		func(w, h, size int, seed int64) bool {
			in := noiseGray(w, h, seed)
			out := DilateInk(in, size)
			for i := range in.Pix {
				if out.Pix[i] > in.Pix[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
		gen.IntRange(1, 5),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestMedian3_WithinRange verifies the median never leaves the input range.
func TestMedian3_WithinRange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("median output stays within input extremes", prop.ForAll(
		func(w, h int, seed int64) bool {
			in := noiseGray(w, h, seed)
			lo, hi := uint8(255), uint8(0)
			for _, v := range in.Pix {
				lo, hi = min(lo, v), max(hi, v)
			}
			for _, v := range Median3(in).Pix {
				if v < lo || v > hi {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
