// Package sessionlog writes a structured JSONL event log per recording
// session, next to the session's output pair.
package sessionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger appends one JSON record per line to a per-session file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

type record struct {
	Timestamp string            `json:"ts"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id"`
	Text      string            `json:"text,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// New creates a logger under dir. The filename is the session start time
// plus a short session id.
func New(dir, sessionID string, started time.Time) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	shortID := sessionID
	if len(sessionID) > 8 {
		shortID = sessionID[:8]
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s_session_%s.jsonl", started.Format("060102-150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: f}, nil
}

// Close closes the underlying file. Further writes are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) write(rec record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	rec.Timestamp = time.Now().Format(time.RFC3339Nano)
	rec.Text = strings.TrimSpace(rec.Text)
	enc := json.NewEncoder(l.file)
	_ = enc.Encode(rec)
}

// SessionStart records the opening of a session.
func (l *Logger) SessionStart(sessionID, provider string, sampleRate int) {
	l.write(record{Event: "session_start", SessionID: sessionID, Details: map[string]string{
		"provider":    provider,
		"sample_rate": fmt.Sprintf("%d", sampleRate),
	}})
}

// Turn records a finalized turn.
func (l *Logger) Turn(sessionID, text string) {
	l.write(record{Event: "turn", SessionID: sessionID, Text: text})
}

// StreamError records a mid-session stream failure.
func (l *Logger) StreamError(sessionID string, err error) {
	l.write(record{Event: "stream_error", SessionID: sessionID, Details: map[string]string{"error": err.Error()}})
}

// Finalize records the written output pair.
func (l *Logger) Finalize(sessionID, wavPath, textPath string, chars int) {
	l.write(record{Event: "finalize", SessionID: sessionID, Details: map[string]string{
		"wav":   wavPath,
		"txt":   textPath,
		"chars": fmt.Sprintf("%d", chars),
	}})
}
