package ocr

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrNoEngine is returned when an orchestrator is built without an engine.
	ErrNoEngine = errors.New("ocr: no engine configured")

	// ErrNoBackend is returned by engines whose backend was not linked into
	// the binary.
	ErrNoBackend = errors.New("ocr: no recognition backend linked; build with -tags=tesseract")
)

// Recognition is the raw output of one engine call.
type Recognition struct {
	Text        string
	Confidences []int // per-token confidence, 0-100; negative means unknown
}

// Engine maps an image to text. Implementations must tolerate many calls per
// image with different configs and may fail on any of them.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, cfg Config) (Recognition, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img image.Image, cfg Config) (Recognition, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, cfg Config) (Recognition, error) {
	return f(ctx, img, cfg)
}

// Config is one engine configuration tried by the orchestrator. PageSegMode
// follows Tesseract's page segmentation numbering.
type Config struct {
	Name          string `mapstructure:"name" yaml:"name" json:"name"`
	PageSegMode   int    `mapstructure:"psm" yaml:"psm" json:"psm"`
	CharWhitelist string `mapstructure:"whitelist" yaml:"whitelist,omitempty" json:"whitelist,omitempty"`
}

// SlipWhitelist limits recognition to the characters that appear in slip
// fields.
const SlipWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz.,/:- "

// Page segmentation modes used by the default configs.
const (
	PSMAutoFull     = 3
	PSMSingleColumn = 4
	PSMSingleBlock  = 6
	PSMSingleLine   = 7
	PSMSparseText   = 11
)

// DefaultConfigs returns the canonical config list in trial order.
func DefaultConfigs() []Config {
	return []Config{
		FallbackConfig(),
		{Name: "single-column", PageSegMode: PSMSingleColumn},
		{Name: "block", PageSegMode: PSMSingleBlock},
		{Name: "full-page", PageSegMode: PSMAutoFull},
		{Name: "single-line", PageSegMode: PSMSingleLine},
		{Name: "sparse-text", PageSegMode: PSMSparseText},
	}
}

// FallbackConfig is used when no attempt clears the length threshold.
func FallbackConfig() Config {
	return Config{Name: "block-whitelist", PageSegMode: PSMSingleBlock, CharWhitelist: SlipWhitelist}
}
