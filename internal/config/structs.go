//nolint:lll
package config

import "github.com/MeKo-Tech/slipscan/internal/ocr"

// Config represents the complete configuration for slipscan. It covers every
// command (image, batch, text, serve) and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction" json:"extraction"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
}

// OCRConfig contains recognition and attempt-selection settings.
type OCRConfig struct {
	// Language is a Tesseract language spec such as "eng" or "eng+hin".
	Language           string       `mapstructure:"language" yaml:"language" json:"language"`
	TessdataPrefix     string       `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix,omitempty" json:"tessdata_prefix,omitempty"`
	MinTextLength      int          `mapstructure:"min_text_length" yaml:"min_text_length" json:"min_text_length"`
	Strategies         []string     `mapstructure:"strategies" yaml:"strategies" json:"strategies"`
	Configs            []ocr.Config `mapstructure:"configs" yaml:"configs" json:"configs"`
	Scorer             string       `mapstructure:"scorer" yaml:"scorer" json:"scorer"`
	MaxImageDimension  int          `mapstructure:"max_image_dimension" yaml:"max_image_dimension" json:"max_image_dimension"`
	AttemptParallelism int          `mapstructure:"attempt_parallelism" yaml:"attempt_parallelism" json:"attempt_parallelism"`
	// PDFPages selects pages of PDF inputs, e.g. "1" or "1-2". Empty reads all.
	PDFPages           string       `mapstructure:"pdf_pages" yaml:"pdf_pages" json:"pdf_pages"`
}

// ExtractionConfig contains field extraction settings.
type ExtractionConfig struct {
	PatternsFile string `mapstructure:"patterns_file" yaml:"patterns_file" json:"patterns_file"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	File      string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
	Directory string `mapstructure:"directory" yaml:"directory" json:"directory"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Recursive bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Workers   int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Include   []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client limits for the extraction endpoints.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}
