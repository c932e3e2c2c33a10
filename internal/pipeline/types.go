package pipeline

import (
	"strconv"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
)

// Status classifies a processed document.
type Status string

const (
	// StatusOK means text was recovered and extraction ran.
	StatusOK Status = "ok"
	// StatusNoText means every OCR attempt came back empty.
	StatusNoText Status = "no_text"
	// StatusError means the document could not be processed at all.
	StatusError Status = "error"
)

// ErrNoText is the message recorded for StatusNoText documents.
const ErrNoText = "no text extracted"

// Column names of a flattened document besides the record's fields.
const (
	ColSourceFile  = "source_file"
	ColStatus      = "status"
	ColError       = "error"
	ColRawText     = "raw_text"
	ColConfidence  = "ocr_confidence"
	ColStrategy    = "ocr_strategy"
	ColOCRConfig   = "ocr_config"
	ColProcessedAt = "processed_timestamp"
)

// TimestampLayout formats ProcessedAt in flattened output.
const TimestampLayout = time.RFC3339

// Document is the outcome for one input: a record, or an explicit error
// entry. Failed documents still carry every field name with an empty value.
type Document struct {
	SourceFile  string         `json:"source_file"`
	Status      Status         `json:"status"`
	Record      extract.Record `json:"record"`
	OCR         *ocr.Selection `json:"ocr,omitempty"`
	Error       string         `json:"error,omitempty"`
	ProcessedAt time.Time      `json:"processed_timestamp"`
	Duration    time.Duration  `json:"duration_ns"`
}

// OK reports whether the document produced a record from real text.
func (d Document) OK() bool { return d.Status == StatusOK }

// Columns returns the flattened column order for the given field names.
func Columns(fields []string) []string {
	cols := make([]string, 0, len(fields)+8)
	cols = append(cols, ColSourceFile)
	cols = append(cols, fields...)
	return append(cols, ColRawText, ColConfidence, ColStrategy, ColOCRConfig, ColProcessedAt, ColStatus, ColError)
}

// Flatten turns the document into a flat column -> string mapping holding
// every column. Missing fields and OCR details of text inputs map to "".
func (d Document) Flatten() map[string]string {
	m := map[string]string{
		ColSourceFile:  d.SourceFile,
		ColStatus:      string(d.Status),
		ColError:       d.Error,
		ColRawText:     d.Record.RawText,
		ColConfidence:  "",
		ColStrategy:    "",
		ColOCRConfig:   "",
		ColProcessedAt: d.ProcessedAt.Format(TimestampLayout),
	}
	for _, name := range d.Record.Order {
		m[name] = d.Record.Fields[name]
	}
	if d.OCR != nil {
		m[ColConfidence] = strconv.FormatFloat(d.OCR.Confidence, 'f', 2, 64)
		m[ColStrategy] = d.OCR.Strategy
		m[ColOCRConfig] = d.OCR.Config
	}
	return m
}

// Stats summarises a set of documents.
type Stats struct {
	Total    int           `json:"total"`
	OK       int           `json:"ok"`
	NoText   int           `json:"no_text"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Add counts one document.
func (s *Stats) Add(d Document) {
	s.Total++
	switch d.Status {
	case StatusOK:
		s.OK++
	case StatusNoText:
		s.NoText++
	default:
		s.Failed++
	}
}
