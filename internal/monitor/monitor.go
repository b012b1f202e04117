// Package monitor polls a clipboard source and captures every change into
// the clipboard history.
package monitor

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/starford/clipman/internal/checksum"
	"github.com/starford/clipman/internal/models"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Capturer persists changed clipboard content.
type Capturer interface {
	Capture(ctx context.Context, content string) (*models.Entry, error)
}

// Monitor polls a Source and hands changed content to a Capturer. All polls
// run on the goroutine calling Run, so they never overlap.
type Monitor struct {
	src       Source
	capture   Capturer
	state     *State
	logger    *slog.Logger
	interval  time.Duration
	watchPath string
	burst     int
	limiter   *rate.Limiter
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWatchFile triggers an extra poll whenever path is written, in
// addition to the periodic ticks. burst bounds how many triggered polls may
// run back to back; the refill rate is one per interval.
func WithWatchFile(path string, burst int) Option {
	return func(m *Monitor) {
		m.watchPath = filepath.Clean(path)
		m.burst = max(burst, 1)
	}
}

// New creates a monitor. A nil state gets a fresh one.
func New(src Source, capture Capturer, state *State, logger *slog.Logger, opts ...Option) *Monitor {
	if state == nil {
		state = NewState()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		src:      src,
		capture:  capture,
		state:    state,
		logger:   logger,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.watchPath != "" {
		m.limiter = rate.NewLimiter(rate.Every(m.interval), m.burst)
	}
	return m
}

// State returns the monitor's shared state.
func (m *Monitor) State() *State {
	return m.state
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if m.watchPath != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer w.Close()
		// Watch the directory: editors and dump tools often replace the file.
		if err := w.Add(filepath.Dir(m.watchPath)); err != nil {
			return err
		}
		events, errs = w.Events, w.Errors
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("monitor: started",
		slog.String("interval", m.interval.String()),
		slog.String("watch", m.watchPath))

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor: stopped")
			return nil

		case <-ticker.C:
			m.Poll(ctx)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != m.watchPath || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !m.limiter.Allow() {
				// The next tick picks the change up.
				continue
			}
			m.Poll(ctx)

		case watchErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Error("monitor: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// Poll performs one read-detect-capture step and reports whether an entry
// was captured.
func (m *Monitor) Poll(ctx context.Context) bool {
	if m.state.Paused() {
		return false
	}
	content, err := m.src.ReadText()
	if err != nil {
		m.logger.Debug("monitor: read failed", slog.String("error", err.Error()))
		return false
	}
	if !m.state.Observe(content) || content == "" {
		return false
	}
	e, err := m.capture.Capture(ctx, content)
	if err != nil {
		m.logger.Warn("monitor: capture failed",
			slog.String("digest", checksum.Short(content)),
			slog.String("error", err.Error()))
		return false
	}
	m.logger.Debug("monitor: captured", slog.Int64("id", e.ID))
	return true
}
