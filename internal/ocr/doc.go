// Package ocr selects the most trustworthy transcription of a slip image.
//
// An Orchestrator runs the Engine once for every pairing of preprocessing
// strategy and engine Config, scores each attempt and keeps the best one
// whose text clears a minimum length. Failed attempts are recorded and
// skipped. When nothing qualifies, the engine is run once more with a fixed
// fallback Config and its output is returned as is.
//
// The Tesseract engine lives in the tesseract subpackage and is only
// compiled with the build tag `tesseract`:
//
//	go build -tags=tesseract ./...
package ocr
