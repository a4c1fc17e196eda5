package metrics

import (
	"fmt"
	"sync"
	"time"
)

// SessionMetrics collects per-recording counters for the summary logged at
// finalize.
type SessionMetrics struct {
	Provider         string
	SessionID        string
	SampleRate       int
	StartTime        time.Time
	EndTime          time.Time
	AudioBytes       int
	TranscriptLength int
	PartialCount     int
	FinalCount       int
	FirstResultTime  *time.Time
	mu               sync.Mutex
}

func NewSessionMetrics(provider, sessionID string, sampleRate int) *SessionMetrics {
	return &SessionMetrics{
		Provider:   provider,
		SessionID:  sessionID,
		SampleRate: sampleRate,
		StartTime:  time.Now(),
	}
}

func (m *SessionMetrics) AddAudioBytes(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioBytes += n
}

func (m *SessionMetrics) AddTranscriptResult(text string, isFinal bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FirstResultTime == nil {
		now := time.Now()
		m.FirstResultTime = &now
	}

	m.TranscriptLength += len(text)
	if isFinal {
		m.FinalCount++
	} else {
		m.PartialCount++
	}
}

func (m *SessionMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Summary renders the session counters. 16-bit mono PCM is assumed when
// deriving the audio duration from the byte count.
func (m *SessionMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	var latency time.Duration
	if m.FirstResultTime != nil {
		latency = m.FirstResultTime.Sub(m.StartTime)
	}

	audioDuration := float64(m.AudioBytes) / (float64(m.SampleRate) * 2)

	return fmt.Sprintf(
		"Provider: %s\n"+
			"Session: %s\n"+
			"Duration: %v\n"+
			"Audio Duration: %.2f seconds\n"+
			"Audio Bytes: %d\n"+
			"Transcript Length: %d chars\n"+
			"First Result Latency: %v\n"+
			"Partial Results: %d\n"+
			"Final Results: %d\n",
		m.Provider,
		m.SessionID,
		duration,
		audioDuration,
		m.AudioBytes,
		m.TranscriptLength,
		latency,
		m.PartialCount,
		m.FinalCount,
	)
}
