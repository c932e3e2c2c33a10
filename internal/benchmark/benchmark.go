// Package benchmark times the stages of slip processing: preprocessing
// strategies, OCR attempts and field extraction.
package benchmark

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/preprocess"
)

// Stage prefixes used for benchmark names.
const (
	StagePreprocess = "Preprocess"
	StageExtract    = "Extract"
	StagePipeline   = "Pipeline"
)

// Timer provides simple timing utilities for benchmarking.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration { return t.duration }

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64
	TotalAllocBytes uint64
	NumGC           uint32
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{AllocBytes: m.Alloc, TotalAllocBytes: m.TotalAlloc, NumGC: m.NumGC}
}

// Result holds the outcome of one benchmark.
type Result struct {
	Name       string
	Duration   time.Duration
	Iterations int
	// AllocatedKB is the cumulative allocation during the run.
	AllocatedKB uint64
	Error       error
}

// Average returns the mean duration per completed iteration.
func (r Result) Average() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Iterations)
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, alloc: %d KB",
		r.Name, r.Iterations, r.Average().Round(time.Microsecond), r.Duration.Round(time.Microsecond), r.AllocatedKB)
}

type benchmark struct {
	name string
	fn   func() error
}

// Suite runs named benchmarks in the order they were added.
type Suite struct {
	mu         sync.Mutex
	benchmarks []benchmark
	results    []Result
}

// NewSuite creates an empty suite.
func NewSuite() *Suite { return &Suite{} }

// Add registers fn under name.
func (s *Suite) Add(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks = append(s.benchmarks, benchmark{name: name, fn: fn})
}

// Len returns the number of registered benchmarks.
func (s *Suite) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.benchmarks)
}

// Run runs the benchmark called name.
func (s *Suite) Run(name string, iterations int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.benchmarks {
		if b.name == name {
			return runBenchmark(b, iterations)
		}
	}
	return Result{Name: name, Error: fmt.Errorf("benchmark '%s' not found", name)}
}

// RunAll runs every benchmark and keeps the results.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make([]Result, 0, len(s.benchmarks))
	for _, b := range s.benchmarks {
		s.results = append(s.results, runBenchmark(b, iterations))
	}
	return s.results
}

// Results returns the last RunAll results.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// runBenchmark stops at the first failing iteration; Iterations then counts
// the successful ones.
func runBenchmark(b benchmark, iterations int) Result {
	runtime.GC()
	before := GetMemoryStats()
	timer := NewTimer(b.name)

	done := 0
	var err error
	for range iterations {
		if err = b.fn(); err != nil {
			break
		}
		done++
	}

	duration := timer.Stop()
	after := GetMemoryStats()
	return Result{
		Name:        b.name,
		Duration:    duration,
		Iterations:  done,
		AllocatedKB: (after.TotalAllocBytes - before.TotalAllocBytes) / 1024,
		Error:       err,
	}
}

// AddStrategies registers one benchmark per preprocessing strategy on img.
func (s *Suite) AddStrategies(label string, img image.Image, strategies []preprocess.Strategy) {
	for _, st := range strategies {
		s.Add(fmt.Sprintf("%s_%s_%s", StagePreprocess, label, st.Name()), func() error {
			_, err := st.Apply(img)
			return err
		})
	}
}

// AddExtraction registers a benchmark extracting fields from text.
func (s *Suite) AddExtraction(label string, engine *extract.Engine, text string) {
	s.Add(StageExtract+"_"+label, func() error {
		engine.Extract(text)
		return nil
	})
}

// AddPipeline registers an end-to-end benchmark of pl on img. A document
// that ends in StatusError fails the benchmark.
func (s *Suite) AddPipeline(ctx context.Context, label string, pl *pipeline.Pipeline, img image.Image) {
	s.Add(StagePipeline+"_"+label, func() error {
		doc := pl.ProcessImage(ctx, label, img)
		if doc.Status == pipeline.StatusError {
			return fmt.Errorf("%s: %s", label, doc.Error)
		}
		return nil
	})
}

// PrintResults writes results as human-readable lines.
func PrintResults(w io.Writer, results []Result) {
	_, _ = fmt.Fprintln(w, "\nBenchmark Results:")
	_, _ = fmt.Fprintln(w, "==================")
	for _, r := range results {
		_, _ = fmt.Fprintln(w, r.String())
	}
	_, _ = fmt.Fprintln(w)
}

// WriteCSV writes results with one row per benchmark.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "iterations", "avg_ms", "total_ms", "alloc_kb", "error"})
	for _, r := range results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		_ = cw.Write([]string{
			r.Name,
			strconv.Itoa(r.Iterations),
			strconv.FormatFloat(float64(r.Average().Microseconds())/1000, 'f', 3, 64),
			strconv.FormatFloat(float64(r.Duration.Microseconds())/1000, 'f', 3, 64),
			strconv.FormatUint(r.AllocatedKB, 10),
			errText,
		})
	}
	cw.Flush()
	return cw.Error()
}
