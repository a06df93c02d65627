// Package audit appends generation attempts to an NDJSON log.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Event is one generation attempt record.
type Event struct {
	Timestamp  string `json:"ts"`
	Prompt     string `json:"prompt"`
	FileName   string `json:"file_name,omitempty"`
	Locale     string `json:"locale"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Config controls the NDJSON audit log.
type Config struct {
	Enabled   bool
	Path      string
	QueueSize int
}

// Log writes events through a bounded async queue so a slow disk never
// stalls a generation attempt. Events are dropped when the queue is full.
// A nil *Log is valid and discards everything.
type Log struct {
	queue  chan Event
	done   chan struct{}
	file   *os.File
	logger *slog.Logger
}

// New creates the audit log. Returns nil when disabled.
func New(cfg Config, logger *slog.Logger) (*Log, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	l := &Log{
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
		file:   file,
		logger: logger,
	}
	go l.run()
	return l, nil
}

// Record enqueues an event, dropping it if the queue is full.
func (l *Log) Record(ev Event) {
	if l == nil {
		return
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	select {
	case l.queue <- ev:
	default:
		l.logger.Debug("Audit queue full, dropping event")
	}
}

func (l *Log) run() {
	defer close(l.done)
	enc := json.NewEncoder(l.file)
	for ev := range l.queue {
		if err := enc.Encode(ev); err != nil {
			l.logger.Warn("Failed to write audit event", "error", err)
		}
	}
}

// Close drains the queue and closes the log file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	close(l.queue)
	<-l.done
	return l.file.Close()
}
