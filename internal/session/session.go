// Package session holds the state of one recording episode and writes its
// output pair.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// timestampFormat names the output pair: <YYMMDD-HHMMSS>.wav / .txt.
const timestampFormat = "060102-150405"

// IncrementalFile is rewritten with the running transcript after every
// finalized turn, so a crash mid-session loses at most the current turn.
const IncrementalFile = "current_session.txt"

// Session is one recording episode: created on key-down, finalized and
// discarded on key-up. At most one exists at a time.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	sampleRate int

	mu      sync.Mutex
	samples []int16
	turns   []string
	partial string
}

// Output describes the file pair a finalized session produced.
type Output struct {
	WavPath  string
	TextPath string
	Text     string
}

// New creates a session stamped with the current time.
func New(sampleRate int) *Session {
	return &Session{
		ID:         uuid.New(),
		Started:    time.Now(),
		sampleRate: sampleRate,
	}
}

// AppendAudio accumulates captured samples for the WAV file.
func (s *Session) AppendAudio(frame []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, frame...)
}

// AddTurn records a finalized turn.
func (s *Session) AddTurn(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, text)
	s.partial = ""
}

// SetPartial records the latest partial transcript.
func (s *Session) SetPartial(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial = strings.TrimSpace(text)
}

// Transcript joins the finalized turns, appending a trailing partial when it
// differs from the last turn.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptLocked()
}

func (s *Session) transcriptLocked() string {
	parts := append([]string(nil), s.turns...)
	if s.partial != "" && (len(s.turns) == 0 || s.partial != s.turns[len(s.turns)-1]) {
		parts = append(parts, s.partial)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// AudioDuration returns the captured audio length.
func (s *Session) AudioDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(s.samples)) * time.Second / time.Duration(s.sampleRate)
}

// Finalize writes the session's WAV and transcript files into dir and
// returns the resulting pair. An empty session still yields a valid pair.
// When a pair from the same second already exists, a numeric suffix keeps
// the names from colliding.
func (s *Session) Finalize(dir string) (Output, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Output{}, fmt.Errorf("creating output directory: %w", err)
	}

	s.mu.Lock()
	samples := s.samples
	text := s.transcriptLocked()
	s.mu.Unlock()

	base := s.basename(dir)
	out := Output{
		WavPath:  filepath.Join(dir, base+".wav"),
		TextPath: filepath.Join(dir, base+".txt"),
		Text:     text,
	}

	if err := writeWav(out.WavPath, samples, s.sampleRate); err != nil {
		return Output{}, err
	}
	if err := os.WriteFile(out.TextPath, []byte(text), 0644); err != nil {
		return Output{}, fmt.Errorf("writing transcript: %w", err)
	}

	// The incremental file has served its purpose once the pair exists.
	_ = os.Remove(filepath.Join(dir, IncrementalFile))

	return out, nil
}

// basename picks the timestamp name, suffixed _2, _3, ... if either file of
// the pair already exists.
func (s *Session) basename(dir string) string {
	stamp := s.Started.Format(timestampFormat)
	base := stamp
	for n := 2; ; n++ {
		_, wavErr := os.Stat(filepath.Join(dir, base+".wav"))
		_, txtErr := os.Stat(filepath.Join(dir, base+".txt"))
		if os.IsNotExist(wavErr) && os.IsNotExist(txtErr) {
			return base
		}
		base = fmt.Sprintf("%s_%d", stamp, n)
	}
}

// SaveIncremental rewrites the running transcript under dir. Nothing is
// written while the transcript is still empty.
func (s *Session) SaveIncremental(dir string) error {
	text := s.Transcript()
	if text == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, IncrementalFile), []byte(text), 0644)
}

// SaveEmergency writes the running transcript to a marked file when the
// stream fails mid-session. Returns the path, or "" when there was nothing
// to save.
func (s *Session) SaveEmergency(dir string) (string, error) {
	text := s.Transcript()
	if text == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("EMERGENCY_%s.txt", time.Now().Format(timestampFormat)))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("emergency save: %w", err)
	}
	return path, nil
}

func writeWav(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("closing wav: %w", err)
	}
	return f.Close()
}
