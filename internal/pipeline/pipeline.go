package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/pdf"
	"github.com/MeKo-Tech/slipscan/internal/preprocess"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

// Config holds the tunables of the image -> record pipeline.
type Config struct {
	Strategies         []string
	Configs            []ocr.Config
	Scorer             string
	MinTextLength      int
	MaxImageDimension  int
	AttemptParallelism int
	PatternsFile       string
	PDFPages           string
	Constraints        utils.ImageConstraints
}

// DefaultConfig returns the canonical strategies and configs.
func DefaultConfig() Config {
	return Config{
		Strategies:         preprocess.Names(),
		Configs:            ocr.DefaultConfigs(),
		Scorer:             ocr.ScoreMeanConfidence,
		MinTextLength:      ocr.DefaultMinTextLength,
		MaxImageDimension:  3000,
		AttemptParallelism: 1,
		Constraints:        utils.DefaultImageConstraints(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	engine ocr.Engine
	table  *extract.Table
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithEngine sets the OCR engine. Without one the pipeline only handles text.
func (b *Builder) WithEngine(e ocr.Engine) *Builder {
	b.engine = e
	return b
}

// WithTable sets the extraction table.
func (b *Builder) WithTable(t *extract.Table) *Builder {
	b.table = t
	return b
}

// WithPatternsFile overlays a YAML pattern file on the table at Build.
func (b *Builder) WithPatternsFile(path string) *Builder {
	b.cfg.PatternsFile = path
	return b
}

// WithStrategies selects preprocessing strategies by name.
func (b *Builder) WithStrategies(names []string) *Builder {
	if len(names) > 0 {
		b.cfg.Strategies = append([]string(nil), names...)
	}
	return b
}

// WithConfigs sets the OCR configs tried per strategy.
func (b *Builder) WithConfigs(cfgs []ocr.Config) *Builder {
	if len(cfgs) > 0 {
		b.cfg.Configs = append([]ocr.Config(nil), cfgs...)
	}
	return b
}

// WithScorer selects the attempt scorer by name.
func (b *Builder) WithScorer(name string) *Builder {
	b.cfg.Scorer = name
	return b
}

// WithMinTextLength sets the substance threshold.
func (b *Builder) WithMinTextLength(n int) *Builder {
	if n >= 0 {
		b.cfg.MinTextLength = n
	}
	return b
}

// WithMaxImageDimension downsizes larger inputs before preprocessing.
func (b *Builder) WithMaxImageDimension(n int) *Builder {
	b.cfg.MaxImageDimension = n
	return b
}

// WithAttemptParallelism runs OCR attempts for one image concurrently.
func (b *Builder) WithAttemptParallelism(n int) *Builder {
	if n > 0 {
		b.cfg.AttemptParallelism = n
	}
	return b
}

// WithPDFPages limits which PDF pages are read ("" reads all).
func (b *Builder) WithPDFPages(pages string) *Builder {
	b.cfg.PDFPages = pages
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time for deterministic output.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	table := b.table
	if table == nil {
		table = extract.DefaultTable()
	}
	if b.cfg.PatternsFile != "" {
		pf, err := extract.LoadPatternFile(b.cfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		table = table.Clone()
		if err := pf.Apply(table); err != nil {
			return nil, fmt.Errorf("apply %s: %w", b.cfg.PatternsFile, err)
		}
	}

	p := &Pipeline{
		cfg:       b.cfg,
		extractor: extract.NewEngine(table, extract.WithClock(now)),
		logger:    logger,
		now:       now,
	}

	if b.engine != nil {
		strategies, err := preprocess.Select(b.cfg.Strategies)
		if err != nil {
			return nil, err
		}
		preps := make([]ocr.Preprocessor, len(strategies))
		for i, s := range strategies {
			preps[i] = s
		}
		scorer, ok := ocr.ScorerByName(b.cfg.Scorer)
		if !ok {
			return nil, fmt.Errorf("unknown scorer %q", b.cfg.Scorer)
		}
		orch, err := ocr.NewOrchestrator(b.engine,
			ocr.WithPreprocessors(preps...),
			ocr.WithConfigs(b.cfg.Configs...),
			ocr.WithScorer(scorer),
			ocr.WithMinTextLength(b.cfg.MinTextLength),
			ocr.WithParallelism(b.cfg.AttemptParallelism),
			ocr.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		p.orchestrator = orch
	}
	return p, nil
}

// Pipeline composes the OCR orchestrator and the extraction engine. It keeps
// no per-document state and may be shared by concurrent workers.
type Pipeline struct {
	cfg          Config
	orchestrator *ocr.Orchestrator
	extractor    *extract.Engine
	logger       *slog.Logger
	now          func() time.Time
}

// HasOCR reports whether an OCR engine is configured.
func (p *Pipeline) HasOCR() bool { return p.orchestrator != nil }

// Fields returns the extracted field names in output order.
func (p *Pipeline) Fields() []string { return p.extractor.Fields() }

// Extractor exposes the extraction engine.
func (p *Pipeline) Extractor() *extract.Engine { return p.extractor }

// ExtractText runs extraction on already recognised text.
func (p *Pipeline) ExtractText(source, text string) Document {
	start := p.now()
	doc := Document{
		SourceFile:  source,
		Record:      p.extractor.Extract(text),
		ProcessedAt: start,
		Status:      StatusOK,
	}
	if strings.TrimSpace(text) == "" {
		doc.Status, doc.Error = StatusNoText, ErrNoText
	}
	doc.Duration = p.now().Sub(start)
	return doc
}

// ProcessImage recognises img and extracts a record. Only context
// cancellation is reported as an error document; OCR attempt failures are
// absorbed by the orchestrator.
func (p *Pipeline) ProcessImage(ctx context.Context, source string, img image.Image) Document {
	start := p.now()
	if p.orchestrator == nil {
		return p.failed(source, start, ocr.ErrNoBackend)
	}
	if err := utils.ValidateImageConstraints(img, p.cfg.Constraints); err != nil {
		return p.failed(source, start, err)
	}
	img = preprocess.Limit(img, p.cfg.MaxImageDimension)

	sel, err := p.orchestrator.Run(ctx, img)
	if err != nil {
		return p.failed(source, start, err)
	}

	doc := Document{
		SourceFile:  source,
		Status:      StatusOK,
		Record:      p.extractor.Extract(sel.Text),
		OCR:         &sel,
		ProcessedAt: start,
	}
	if sel.Empty() {
		doc.Status, doc.Error = StatusNoText, ErrNoText
		p.logger.Info("no text extracted", "file", source, "attempts", len(sel.Attempts))
	}
	doc.Duration = p.now().Sub(start)
	p.logger.Debug("document processed", "file", source, "status", doc.Status,
		"fields_found", len(doc.Record.Found()), "duration", doc.Duration)
	return doc
}

// ProcessFile loads and processes one image or PDF file. A file that cannot
// be read or decoded yields a StatusError document, never a Go error.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) Document {
	if pdf.IsPDF(path) {
		return p.ProcessPDF(ctx, path)
	}
	source := filepath.Base(path)
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return p.failed(source, p.now(), err)
	}
	return p.ProcessImage(ctx, source, img)
}

// ProcessPDF handles one slip saved as PDF. A usable text layer goes straight
// to the extractor; otherwise the page images are recognised in page order
// and the first page that yields text wins.
func (p *Pipeline) ProcessPDF(ctx context.Context, path string) Document {
	source := filepath.Base(path)
	start := p.now()

	text, err := pdf.TextLayer(path, p.cfg.PDFPages)
	if err != nil {
		p.logger.Debug("no usable PDF text layer", "file", source, "error", err)
	}
	if pdf.UsableText(text) {
		p.logger.Debug("using PDF text layer", "file", source)
		return p.ExtractText(source, text)
	}

	pages, err := pdf.PageImages(path, p.cfg.PDFPages)
	if err != nil {
		return p.failed(source, start, err)
	}
	if len(pages) == 0 {
		return p.failed(source, start, pdf.ErrNoPageImages)
	}

	var doc Document
	for i, img := range pages {
		doc = p.ProcessImage(ctx, source, img)
		if doc.Status != StatusNoText {
			break
		}
		p.logger.Debug("PDF page without text", "file", source, "page_index", i)
	}
	return doc
}

// ProcessTextFile reads an existing transcription and extracts a record.
func (p *Pipeline) ProcessTextFile(path string) Document {
	source := filepath.Base(path)
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading the operator's input files is the point
	if err != nil {
		return p.failed(source, p.now(), err)
	}
	return p.ExtractText(source, string(data))
}

func (p *Pipeline) failed(source string, start time.Time, err error) Document {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelInfo
	}
	p.logger.Log(context.Background(), level, "document failed", "file", source, "error", err)
	return Document{
		SourceFile:  source,
		Status:      StatusError,
		Record:      p.extractor.Extract(""),
		Error:       err.Error(),
		ProcessedAt: start,
		Duration:    p.now().Sub(start),
	}
}
