package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives batch progress. Implementations must be safe
// for use from several workers.
type ProgressCallback interface {
	// OnStart is called once with the number of documents.
	OnStart(total int)
	// OnDocument is called after each document, in completion order.
	OnDocument(current, total int, doc Document)
	// OnComplete is called once with the final tally.
	OnComplete(stats Stats)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                   {}
func (NoOpProgressCallback) OnDocument(int, int, Document) {}
func (NoOpProgressCallback) OnComplete(Stats)              {}

// ConsoleProgressCallback draws a progress bar and reports failed
// documents on their own line.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	lastUpdate     time.Time
	updateInterval time.Duration
	mutex          sync.Mutex
	startTime      time.Time
}

// NewConsoleProgressCallback creates a console reporter; nil writes to
// stderr.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	if width > 0 {
		c.width = width
	}
	return c
}

// WithUpdateInterval sets how frequently the progress bar redraws.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d (0.0%%)\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnDocument(current, total int, doc Document) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if doc.Status == StatusError {
		_, _ = fmt.Fprintf(c.writer, "\n%s%s: %s\n", c.prefix, doc.SourceFile, doc.Error)
	}
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	c.draw(current, total)
}

func (c *ConsoleProgressCallback) OnComplete(stats Stats) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted %d documents (%d ok, %d no text, %d failed) in %v\n",
		c.prefix, stats.Total, stats.OK, stats.NoText, stats.Failed,
		time.Since(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) draw(current, total int) {
	if total == 0 {
		return
	}
	percent := float64(current) / float64(total) * 100.0
	filled := c.width * current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] %d/%d (%.1f%%)", c.prefix, bar, current, total, percent)
}

// LogProgressCallback reports progress through slog.
type LogProgressCallback struct {
	logger   *slog.Logger
	level    slog.Level
	interval int
	mutex    sync.Mutex
	lastLog  int
}

// NewLogProgressCallback logs every interval documents at level.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 10}
}

// WithInterval sets how often to log (every N documents).
func (l *LogProgressCallback) WithInterval(n int) *LogProgressCallback {
	if n > 0 {
		l.interval = n
	}
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.logger.Log(context.Background(), l.level, "batch started", "total", total)
}

func (l *LogProgressCallback) OnDocument(current, total int, doc Document) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if doc.Status == StatusError {
		l.logger.Warn("document failed", "file", doc.SourceFile, "error", doc.Error)
	}
	if current-l.lastLog >= l.interval || current == total {
		l.lastLog = current
		l.logger.Log(context.Background(), l.level, "batch progress", "current", current, "total", total)
	}
}

func (l *LogProgressCallback) OnComplete(stats Stats) {
	l.logger.Log(context.Background(), l.level, "batch completed",
		"total", stats.Total, "ok", stats.OK, "no_text", stats.NoText, "failed", stats.Failed,
		"duration", stats.Duration.Round(time.Millisecond))
}

// MultiProgressCallback fans out to several callbacks.
type MultiProgressCallback []ProgressCallback

func (m MultiProgressCallback) OnStart(total int) {
	for _, cb := range m {
		cb.OnStart(total)
	}
}

func (m MultiProgressCallback) OnDocument(current, total int, doc Document) {
	for _, cb := range m {
		cb.OnDocument(current, total, doc)
	}
}

func (m MultiProgressCallback) OnComplete(stats Stats) {
	for _, cb := range m {
		cb.OnComplete(stats)
	}
}
