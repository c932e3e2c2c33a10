// Package tesseract provides an ocr.Engine backed by Tesseract through
// gosseract. The cgo binding is only compiled with the build tag
// `tesseract`; without it New returns an engine whose calls fail with
// ocr.ErrNoBackend.
//
//	go build -tags=tesseract ./cmd/slipscan
package tesseract

// Options configures the engine.
type Options struct {
	// Languages passed to Tesseract, e.g. "eng". Empty uses Tesseract's default.
	Languages []string
	// TessdataPrefix overrides the tessdata directory.
	TessdataPrefix string
}

// DefaultOptions returns English recognition with the system tessdata.
func DefaultOptions() Options {
	return Options{Languages: []string{"eng"}}
}
