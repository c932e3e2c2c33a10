package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/batch"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/ocr/tesseract"
	"github.com/MeKo-Tech/slipscan/internal/pdf"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/preprocess"
	"github.com/MeKo-Tech/slipscan/internal/server"
)

const infoLevel = "info"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: infoLevel,
		OCR: OCRConfig{
			Language:           "eng",
			MinTextLength:      ocr.DefaultMinTextLength,
			Strategies:         preprocess.Names(),
			Configs:            ocr.DefaultConfigs(),
			Scorer:             ocr.ScoreMeanConfidence,
			MaxImageDimension:  3000,
			AttemptParallelism: 1,
		},
		Output: OutputConfig{
			Format: batch.FormatCSV,
		},
		Batch: BatchConfig{
			Workers: 1,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxDataPerDay:     500 * 1024 * 1024,
			},
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", infoLevel, "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{batch.FormatCSV, batch.FormatJSON, batch.FormatText}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.OCR.MinTextLength < 0 {
		return fmt.Errorf("invalid ocr.min_text_length: %d (must not be negative)", c.OCR.MinTextLength)
	}
	if _, err := preprocess.Select(c.OCR.Strategies); err != nil {
		return fmt.Errorf("invalid ocr.strategies: %w", err)
	}
	if len(c.OCR.Configs) == 0 {
		return errors.New("invalid ocr.configs: at least one config is required")
	}
	for i, oc := range c.OCR.Configs {
		if oc.Name == "" {
			return fmt.Errorf("invalid ocr.configs[%d]: name is required", i)
		}
		if oc.PageSegMode < 0 || oc.PageSegMode > 13 {
			return fmt.Errorf("invalid ocr.configs[%d]: psm %d (must be between 0 and 13)", i, oc.PageSegMode)
		}
	}
	if _, ok := ocr.ScorerByName(c.OCR.Scorer); !ok {
		return fmt.Errorf("invalid ocr.scorer: %s", c.OCR.Scorer)
	}
	if c.OCR.MaxImageDimension < 0 {
		return fmt.Errorf("invalid ocr.max_image_dimension: %d (must not be negative)", c.OCR.MaxImageDimension)
	}
	if _, err := pdf.ParsePageRange(c.OCR.PDFPages); err != nil {
		return fmt.Errorf("invalid ocr.pdf_pages: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if rl := c.Server.RateLimit; rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 ||
		rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDay < 0 {
		return errors.New("invalid server.rate_limit: limits must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// Languages splits the OCR language spec into Tesseract language codes.
func (c *Config) Languages() []string {
	var langs []string
	for _, l := range strings.Split(c.OCR.Language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// ToTesseractOptions converts the OCR section to engine options.
func (c *Config) ToTesseractOptions() tesseract.Options {
	return tesseract.Options{Languages: c.Languages(), TessdataPrefix: c.OCR.TessdataPrefix}
}

// ToPipelineBuilder returns a pipeline builder populated from the config.
// The caller still supplies the OCR engine.
func (c *Config) ToPipelineBuilder() *pipeline.Builder {
	return pipeline.NewBuilder().
		WithStrategies(c.OCR.Strategies).
		WithConfigs(c.OCR.Configs).
		WithScorer(c.OCR.Scorer).
		WithMinTextLength(c.OCR.MinTextLength).
		WithMaxImageDimension(c.OCR.MaxImageDimension).
		WithAttemptParallelism(c.OCR.AttemptParallelism).
		WithPDFPages(c.OCR.PDFPages).
		WithPatternsFile(c.Extraction.PatternsFile)
}

// ToServerConfig converts the server section. The caller adds the version
// and logger.
func (c *Config) ToServerConfig() server.Config {
	rl := c.Server.RateLimit
	return server.Config{
		Host:        c.Server.Host,
		Port:        c.Server.Port,
		CORSOrigin:  c.Server.CORSOrigin,
		MaxUploadMB: int64(c.Server.MaxUploadMB),
		TimeoutSec:  c.Server.TimeoutSec,
		RateLimit: server.RateLimitConfig{
			Enabled:           rl.Enabled,
			RequestsPerMinute: rl.RequestsPerMinute,
			RequestsPerHour:   rl.RequestsPerHour,
			MaxRequestsPerDay: rl.MaxRequestsPerDay,
			MaxDataPerDay:     rl.MaxDataPerDay,
		},
	}
}

// ToBatchConfig converts the batch and output sections to a batch config.
func (c *Config) ToBatchConfig() *batch.Config {
	return &batch.Config{
		Workers:          c.Batch.Workers,
		Recursive:        c.Batch.Recursive,
		IncludePatterns:  slices.Clone(c.Batch.Include),
		ExcludePatterns:  slices.Clone(c.Batch.Exclude),
		Format:           c.Output.Format,
		OutputFile:       c.Output.File,
		OutputDir:        c.Output.Directory,
		ProgressInterval: 100 * time.Millisecond,
	}
}
