// Package batch runs the slip pipeline over many files. A batch always
// yields one document per discovered input; a broken file becomes an error
// entry and never stops the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
)

// ErrNoInputs is returned when discovery finds nothing to process.
var ErrNoInputs = errors.New("no input files found")

// Processor is the part of the pipeline a batch needs.
type Processor interface {
	ProcessFile(ctx context.Context, path string) pipeline.Document
	ProcessTextFile(path string) pipeline.Document
	Fields() []string
}

// ProcessBatch discovers inputs and processes them with pl.
func ProcessBatch(ctx context.Context, pl Processor, inputs []string, cfg *Config) (*Result, error) {
	files, err := discoverFiles(inputs, cfg.Recursive, acceptFor(cfg), cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	progress := cfg.Progress
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
		if cfg.ShowProgress && !cfg.Quiet {
			progress = pipeline.NewConsoleProgressCallback(os.Stderr, "Processing: ").
				WithUpdateInterval(cfg.ProgressInterval)
		}
	}

	workers := max(cfg.Workers, 1)
	start := time.Now()
	progress.OnStart(len(files))
	docs := processFiles(ctx, pl, files, cfg.TextInput, workers, progress)

	res := &Result{Documents: docs, Fields: pl.Fields(), Workers: workers}
	for _, d := range docs {
		res.Stats.Add(d)
	}
	res.Stats.Duration = time.Since(start)
	progress.OnComplete(res.Stats)
	return res, nil
}

// processFiles keeps results in input order regardless of worker count.
func processFiles(ctx context.Context, pl Processor, files []string, textInput bool,
	workers int, progress pipeline.ProgressCallback) []pipeline.Document {
	docs := make([]pipeline.Document, len(files))
	process := func(path string) pipeline.Document {
		if textInput {
			return pl.ProcessTextFile(path)
		}
		return pl.ProcessFile(ctx, path)
	}

	if workers == 1 || len(files) == 1 {
		for i, path := range files {
			docs[i] = process(path)
			progress.OnDocument(i+1, len(files), docs[i])
		}
		return docs
	}

	jobs := make(chan int)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for range min(workers, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				docs[i] = process(files[i])
				mu.Lock()
				done++
				progress.OnDocument(done, len(files), docs[i])
				mu.Unlock()
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return docs
}
