package testutil

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Sample is a named slip transcription.
type Sample struct {
	Name string
	Text string
}

// SampleSlips returns the built-in slip transcriptions in a stable order.
func SampleSlips() []Sample {
	return []Sample{
		{"standard", SlipStandard},
		{"noisy", SlipNoisy},
		{"signature_only", SlipSignatureOnly},
		{"words_only", "DEPOSIT SLIP\nSB A/C No 5566778899\nRupees Twelve Thousand Only\n" +
			"Name of Depositor: ANITA DESAI\nDate: 12 Jan 2025"},
	}
}

const renderMargin = 16

// RenderSlip draws text line by line in a 7x13 bitmap font on a white page
// and enlarges it by scale with nearest-neighbour sampling.
func RenderSlip(lines []string, scale int) image.Image {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4

	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	page := image.NewGray(image.Rect(0, 0, width+2*renderMargin, len(lines)*lineHeight+2*renderMargin))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: page, Src: image.Black, Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(renderMargin, renderMargin+(i+1)*lineHeight-face.Descent)
		d.DrawString(l)
	}

	if scale <= 1 {
		return page
	}
	b := page.Bounds()
	return imaging.Resize(page, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
}
