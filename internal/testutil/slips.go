package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
)

// Sample transcriptions of deposit slips as OCR tends to produce them.
const (
	SlipStandard = "Account Number: 1234567890123\nAmount: Rs. 15,750.50\nName: John Michael Smith\nDate: 24/08/2025"

	SlipNoisy = "STATE BANK DEPOSIT SLIP\nBranch: MG Road  Date 05-09-24\n" +
		"A/C No. 0011 2233 4455\nDepositor: PRIYA NAIR\n" +
		"Rs 2,500/-\nRupees Two Thousand Five Hundred Only\nRef No: TXN7788123"

	SlipSignatureOnly = "Signature: ________________"
)

// CreateTestImage returns a solid image, optionally with a dark band where
// text would be.
func CreateTestImage(width, height int, withBand bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			c := color.RGBA{R: 240, G: 238, B: 230, A: 255}
			if withBand && y > height/3 && y < height/2 && x > width/10 && x < width*9/10 {
				c = color.RGBA{R: 20, G: 20, B: 30, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// WriteImage encodes img according to the file extension of name and
// writes it under dir.
func WriteImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, nil)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	require.NoError(t, err)
	return WriteFile(t, dir, name, buf.Bytes())
}

// StaticEngine returns an OCR engine that answers every call with text.
func StaticEngine(text string, confidences ...int) ocr.Engine {
	return ocr.EngineFunc(func(ctx context.Context, _ image.Image, _ ocr.Config) (ocr.Recognition, error) {
		if err := ctx.Err(); err != nil {
			return ocr.Recognition{}, err
		}
		return ocr.Recognition{Text: text, Confidences: confidences}, nil
	})
}
