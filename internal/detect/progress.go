package detect

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

// Status messages emitted during a run.
const (
	StatusFiltered        = "Filtered candidates using character analysis"
	StatusStarting        = "Starting language detection"
	StatusProcessing      = "Processing %s"
	StatusHighConfidence  = "High confidence match found: %s"
	StatusEarlyTerminated = "Early termination - high confidence match found"
	StatusFinalizing      = "Finalizing results"
)

// ProgressEvent describes the state of a running detection.
type ProgressEvent struct {
	Status     string  `json:"status"`
	Processed  int     `json:"processed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	// ElapsedTime is Elapsed in seconds.
	ElapsedTime float64       `json:"elapsed_time"`
	Elapsed     time.Duration `json:"-"`
}

// ProgressSink observes detection progress. Detect calls it from the calling
// goroutine only, so implementations need no locking unless shared across
// concurrent Detect calls.
type ProgressSink interface {
	OnProgress(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(event ProgressEvent)

// OnProgress calls f.
func (f ProgressFunc) OnProgress(event ProgressEvent) { f(event) }

// NoOpProgressSink discards events.
type NoOpProgressSink struct{}

func (NoOpProgressSink) OnProgress(ProgressEvent) {}

// reporter stamps events with percentage and elapsed time.
type reporter struct {
	sink  ProgressSink
	start time.Time
}

func newReporter(sink ProgressSink) *reporter {
	return &reporter{sink: sink, start: time.Now()}
}

func (r *reporter) update(status string, processed, total int) {
	if r.sink == nil {
		return
	}
	var pct float64
	if total > 0 {
		pct = float64(processed) / float64(total) * 100
	}
	elapsed := time.Since(r.start)
	r.sink.OnProgress(ProgressEvent{
		Status:      status,
		Processed:   processed,
		Total:       total,
		Percentage:  pct,
		ElapsedTime: elapsed.Seconds(),
		Elapsed:     elapsed,
	})
}

// ConsoleProgressSink draws a progress bar with the current status.
type ConsoleProgressSink struct {
	writer         io.Writer
	prefix         string
	width          int
	lastUpdate     time.Time
	updateInterval time.Duration
	mutex          sync.Mutex
}

// NewConsoleProgressSink creates a console reporter writing to writer
// (stderr when nil).
func NewConsoleProgressSink(writer io.Writer, prefix string) *ConsoleProgressSink {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressSink{
		writer:         writer,
		prefix:         prefix,
		width:          30,
		updateInterval: 50 * time.Millisecond,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressSink) WithWidth(width int) *ConsoleProgressSink {
	c.width = width
	return c
}

// WithUpdateInterval sets how frequently the bar is redrawn.
func (c *ConsoleProgressSink) WithUpdateInterval(interval time.Duration) *ConsoleProgressSink {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressSink) OnProgress(event ProgressEvent) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	final := event.Status == StatusFinalizing
	now := time.Now()
	if !final && !c.lastUpdate.IsZero() && now.Sub(c.lastUpdate) < c.updateInterval {
		return
	}
	c.lastUpdate = now

	filled := 0
	if event.Total > 0 {
		filled = c.width * event.Processed / event.Total
	}
	filled = max(0, min(filled, c.width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)

	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] %d/%d (%.1f%%) %s\033[K",
		c.prefix, bar, event.Processed, event.Total, event.Percentage, event.Status)
	if final {
		_, _ = fmt.Fprintf(c.writer, "\n")
	}
}

// LogProgressSink logs events using slog.
type LogProgressSink struct {
	logger *slog.Logger
	level  slog.Level
	prefix string
}

// NewLogProgressSink creates a log-based progress reporter.
func NewLogProgressSink(logger *slog.Logger, level slog.Level, prefix string) *LogProgressSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressSink{logger: logger, level: level, prefix: prefix}
}

func (l *LogProgressSink) OnProgress(event ProgressEvent) {
	l.logger.Log(context.Background(), l.level, l.prefix+event.Status,
		"processed", event.Processed,
		"total", event.Total,
		"percent", fmt.Sprintf("%.1f", event.Percentage),
		"elapsed", event.Elapsed.Round(time.Microsecond),
	)
}

// MultiProgressSink fans events out to several sinks.
type MultiProgressSink struct {
	sinks []ProgressSink
}

// NewMultiProgressSink creates a sink reporting to all of sinks.
func NewMultiProgressSink(sinks ...ProgressSink) *MultiProgressSink {
	return &MultiProgressSink{sinks: sinks}
}

// Add adds another sink.
func (m *MultiProgressSink) Add(sink ProgressSink) {
	m.sinks = append(m.sinks, sink)
}

func (m *MultiProgressSink) OnProgress(event ProgressEvent) {
	for _, s := range m.sinks {
		if s != nil {
			s.OnProgress(event)
		}
	}
}

// ThrottledProgressSink forwards at most one event per interval. The first
// event and events that complete the run always pass.
type ThrottledProgressSink struct {
	wrapped     ProgressSink
	minInterval time.Duration
	lastUpdate  time.Time
	mutex       sync.Mutex
}

// NewThrottledProgressSink wraps sink.
func NewThrottledProgressSink(wrapped ProgressSink, minInterval time.Duration) *ThrottledProgressSink {
	return &ThrottledProgressSink{wrapped: wrapped, minInterval: minInterval}
}

func (t *ThrottledProgressSink) OnProgress(event ProgressEvent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := time.Now()
	complete := event.Total > 0 && event.Processed == event.Total
	if complete || t.lastUpdate.IsZero() || now.Sub(t.lastUpdate) >= t.minInterval {
		t.lastUpdate = now
		t.wrapped.OnProgress(event)
	}
}

// ProgressRecorder keeps every event it receives.
type ProgressRecorder struct {
	mutex  sync.Mutex
	events []ProgressEvent
}

func (r *ProgressRecorder) OnProgress(event ProgressEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *ProgressRecorder) Events() []ProgressEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]ProgressEvent(nil), r.events...)
}

// Statuses returns the recorded status messages in order.
func (r *ProgressRecorder) Statuses() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}
