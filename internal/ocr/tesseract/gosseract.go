//go:build tesseract

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
)

// Available reports whether the Tesseract backend is linked.
const Available = true

// Engine runs one gosseract client per call so it is safe for concurrent use.
type Engine struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

// New returns a Tesseract engine.
func New(opts Options) (*Engine, error) {
	return &Engine{opts: opts, clientFactory: gosseract.NewClient}, nil
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, img image.Image, cfg ocr.Config) (ocr.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ocr.Recognition{}, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if e.opts.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			return ocr.Recognition{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(e.opts.Languages) > 0 {
		if err := c.SetLanguage(e.opts.Languages...); err != nil {
			return ocr.Recognition{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		return ocr.Recognition{}, fmt.Errorf("set page seg mode %d: %w", cfg.PageSegMode, err)
	}
	if cfg.CharWhitelist != "" {
		if err := c.SetWhitelist(cfg.CharWhitelist); err != nil {
			return ocr.Recognition{}, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return ocr.Recognition{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("recognize text: %w", err)
	}
	return ocr.Recognition{Text: text, Confidences: wordConfidences(c)}, nil
}

func wordConfidences(c *gosseract.Client) []int {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil
	}
	confs := make([]int, 0, len(boxes))
	for _, b := range boxes {
		confs = append(confs, int(math.Round(b.Confidence)))
	}
	return confs
}
