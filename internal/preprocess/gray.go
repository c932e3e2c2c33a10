package preprocess

import (
	"image"
	"image/draw"
	"slices"

	"github.com/disintegration/imaging"
)

// ToGray converts img to a tightly packed 8-bit grayscale image anchored at
// (0,0). The other filters in this file expect that layout.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), nrgba, b.Min, draw.Src)
	return gray
}

// OtsuThreshold picks the gray level that maximises between-class variance.
func OtsuThreshold(g *image.Gray) uint8 {
	const bins = 256
	var histogram [bins]int
	total := 0
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			histogram[v]++
		}
		total += b.Dx()
	}
	if total == 0 {
		return 127
	}

	var sumAll float64
	for i := range bins {
		sumAll += float64(i) * float64(histogram[i])
	}

	var sumB, maxVariance float64
	best, wB := 0, 0
	for t := range bins {
		wB += histogram[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(histogram[t])
		meanB := sumB / float64(wB)
		meanF := (sumAll - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}
	return uint8(best) //nolint:gosec // best is a histogram bin in [0,255]
}

// Binarize applies Otsu's threshold: pixels above it become paper (255),
// the rest ink (0).
func Binarize(g *image.Gray) *image.Gray {
	t := OtsuThreshold(g)
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		if v > t {
			out.Pix[i] = 255
		}
	}
	return out
}

// Median3 applies a 3x3 median filter, clamping at the borders.
func Median3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	var window [9]uint8
	for y := range h {
		for x := range w {
			n := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					nx, ny := clamp(x+kx, w), clamp(y+ky, h)
					window[n] = g.Pix[ny*g.Stride+nx]
					n++
				}
			}
			s := window[:]
			slices.Sort(s)
			out.Pix[y*out.Stride+x] = s[4]
		}
	}
	return out
}

// DilateInk grows dark strokes with a size x size window so broken
// characters reconnect. It is a minimum filter on the gray values.
func DilateInk(g *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return g
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	lo, hi := -(size-1)/2, size/2
	for y := range h {
		for x := range w {
			minVal := uint8(255)
			for ky := lo; ky <= hi; ky++ {
				for kx := lo; kx <= hi; kx++ {
					nx, ny := x+kx, y+ky
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					if v := g.Pix[ny*g.Stride+nx]; v < minVal {
						minVal = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = minVal
		}
	}
	return out
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
