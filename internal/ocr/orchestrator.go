package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MeKo-Tech/slipscan/internal/preprocess"
)

// DefaultMinTextLength is the substance threshold: an attempt must produce
// more than this many non-blank characters to be considered.
const DefaultMinTextLength = 10

// Preprocessor prepares an image for the engine. preprocess.Strategy
// implements it.
type Preprocessor interface {
	Name() string
	Apply(img image.Image) (image.Image, error)
}

// Attempt is one (preprocessor, config) trial.
type Attempt struct {
	Strategy    string        `json:"strategy"`
	Config      Config        `json:"config"`
	Text        string        `json:"text"`
	Confidences []int         `json:"-"`
	Confidence  float64       `json:"confidence"`
	Score       float64       `json:"score"`
	Err         error         `json:"-"`
	Duration    time.Duration `json:"duration_ns"`
}

// Qualifies reports whether the attempt succeeded with more than min
// characters of trimmed text.
func (a Attempt) Qualifies(minLength int) bool {
	return a.Err == nil && utf8.RuneCountInString(strings.TrimSpace(a.Text)) > minLength
}

// Selection is the orchestrator's verdict for one image.
type Selection struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	Config     string    `json:"config"`
	Fallback   bool      `json:"fallback"`
	Attempts   []Attempt `json:"attempts,omitempty"`
}

// Empty reports whether no text was recovered at all.
func (s Selection) Empty() bool { return strings.TrimSpace(s.Text) == "" }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPreprocessors sets the strategies in trial order.
func WithPreprocessors(p ...Preprocessor) Option {
	return func(o *Orchestrator) { o.preprocessors = append([]Preprocessor(nil), p...) }
}

// WithConfigs sets the engine configs in trial order.
func WithConfigs(cfgs ...Config) Option {
	return func(o *Orchestrator) { o.configs = append([]Config(nil), cfgs...) }
}

// WithFallback sets the config used when no attempt qualifies.
func WithFallback(cfg Config) Option {
	return func(o *Orchestrator) { o.fallback = cfg }
}

// WithScorer replaces the ranking function.
func WithScorer(s Scorer) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithMinTextLength sets the substance threshold.
func WithMinTextLength(n int) Option {
	return func(o *Orchestrator) { o.minTextLength = n }
}

// WithParallelism runs up to n attempts at once. Selection stays
// deterministic because attempts are ranked in trial order.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) { o.parallelism = n }
}

// WithLogger sets the logger for per-attempt debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator is stateless across Run calls and safe for concurrent use.
type Orchestrator struct {
	engine        Engine
	preprocessors []Preprocessor
	configs       []Config
	fallback      Config
	scorer        Scorer
	minTextLength int
	parallelism   int
	logger        *slog.Logger
}

// NewOrchestrator builds an orchestrator around engine. Without options it
// tries every preprocess strategy with DefaultConfigs.
func NewOrchestrator(engine Engine, opts ...Option) (*Orchestrator, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	o := &Orchestrator{
		engine:        engine,
		configs:       DefaultConfigs(),
		fallback:      FallbackConfig(),
		scorer:        MeanPositiveConfidence,
		minTextLength: DefaultMinTextLength,
		parallelism:   1,
		logger:        slog.Default(),
	}
	for _, s := range preprocess.All() {
		o.preprocessors = append(o.preprocessors, s)
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.configs) == 0 {
		return nil, fmt.Errorf("ocr: at least one config is required")
	}
	return o, nil
}

type prepared struct {
	name string
	img  image.Image
	err  error
}

type trial struct {
	prep prepared
	cfg  Config
}

// Run transcribes img. It only fails when ctx is done; engine and
// preprocessing errors are recorded in the returned attempts.
func (o *Orchestrator) Run(ctx context.Context, img image.Image) (Selection, error) {
	preps := o.prepare(img)

	trials := make([]trial, 0, len(preps)*len(o.configs))
	for _, p := range preps {
		for _, c := range o.configs {
			trials = append(trials, trial{prep: p, cfg: c})
		}
	}

	attempts, err := o.runTrials(ctx, trials)
	if err != nil {
		return Selection{}, err
	}

	best := -1
	for i := range attempts {
		if !attempts[i].Qualifies(o.minTextLength) {
			continue
		}
		if best < 0 || attempts[i].Score > attempts[best].Score {
			best = i
		}
	}
	if best >= 0 {
		a := attempts[best]
		o.logger.Debug("ocr attempt selected",
			"strategy", a.Strategy, "config", a.Config.Name,
			"confidence", a.Confidence, "score", a.Score, "attempts", len(attempts))
		return Selection{
			Text:       a.Text,
			Confidence: a.Confidence,
			Strategy:   a.Strategy,
			Config:     a.Config.Name,
			Attempts:   attempts,
		}, nil
	}

	return o.runFallback(ctx, img, preps, attempts)
}

// runFallback uses the first strategy's image, or the input when that
// strategy failed.
func (o *Orchestrator) runFallback(ctx context.Context, img image.Image, preps []prepared, attempts []Attempt) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	p := prepared{name: "none", img: img}
	if len(preps) > 0 && preps[0].err == nil {
		p = preps[0]
	}
	a := o.attempt(ctx, trial{prep: p, cfg: o.fallback})
	o.logger.Debug("ocr fallback", "strategy", a.Strategy, "config", a.Config.Name,
		"length", len(a.Text), "error", a.Err)
	return Selection{
		Text:       a.Text,
		Confidence: a.Confidence,
		Strategy:   a.Strategy,
		Config:     a.Config.Name,
		Fallback:   true,
		Attempts:   append(attempts, a),
	}, nil
}

func (o *Orchestrator) prepare(img image.Image) []prepared {
	if len(o.preprocessors) == 0 {
		return []prepared{{name: "none", img: img}}
	}
	out := make([]prepared, len(o.preprocessors))
	for i, p := range o.preprocessors {
		pi, err := p.Apply(img)
		out[i] = prepared{name: p.Name(), img: pi, err: err}
	}
	return out
}

func (o *Orchestrator) runTrials(ctx context.Context, trials []trial) ([]Attempt, error) {
	attempts := make([]Attempt, len(trials))
	if o.parallelism <= 1 {
		for i, t := range trials {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			attempts[i] = o.attempt(ctx, t)
		}
		return attempts, nil
	}

	sem := make(chan struct{}, o.parallelism)
	var wg sync.WaitGroup
	for i, t := range trials {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			attempts[i] = o.attempt(ctx, t)
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (o *Orchestrator) attempt(ctx context.Context, t trial) Attempt {
	a := Attempt{Strategy: t.prep.name, Config: t.cfg}
	if t.prep.err != nil {
		a.Err = fmt.Errorf("preprocess %s: %w", t.prep.name, t.prep.err)
		o.logger.Debug("ocr attempt skipped", "strategy", a.Strategy, "config", t.cfg.Name, "error", a.Err)
		return a
	}
	start := time.Now()
	rec, err := o.safeRecognize(ctx, t.prep.img, t.cfg)
	a.Duration = time.Since(start)
	if err != nil {
		a.Err = err
		o.logger.Debug("ocr attempt failed", "strategy", a.Strategy, "config", t.cfg.Name, "error", err)
		return a
	}
	a.Text = rec.Text
	a.Confidences = rec.Confidences
	a.Confidence = meanPositive(rec.Confidences)
	a.Score = o.scorer(a)
	o.logger.Debug("ocr attempt",
		"strategy", a.Strategy, "config", t.cfg.Name,
		"length", len(a.Text), "confidence", a.Confidence, "duration", a.Duration)
	return a
}

// safeRecognize turns an engine panic into an attempt error.
func (o *Orchestrator) safeRecognize(ctx context.Context, img image.Image, cfg Config) (rec Recognition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return o.engine.Recognize(ctx, img, cfg)
}
