package metrics

import (
	"strings"
	"testing"
)

func TestSessionMetricsCounters(t *testing.T) {
	m := NewSessionMetrics("assemblyai", "sess-1", 16000)

	m.AddAudioBytes(16000)
	m.AddAudioBytes(16000) // one second total at 16kHz mono 16-bit

	m.AddTranscriptResult("hello wor", false)
	m.AddTranscriptResult("hello worl", false)
	m.AddTranscriptResult("Hello world.", true)
	m.Finalize()

	if m.AudioBytes != 32000 {
		t.Errorf("AudioBytes = %d, want 32000", m.AudioBytes)
	}
	if m.PartialCount != 2 {
		t.Errorf("PartialCount = %d, want 2", m.PartialCount)
	}
	if m.FinalCount != 1 {
		t.Errorf("FinalCount = %d, want 1", m.FinalCount)
	}
	if m.TranscriptLength != len("hello wor")+len("hello worl")+len("Hello world.") {
		t.Errorf("TranscriptLength = %d", m.TranscriptLength)
	}
	if m.FirstResultTime == nil {
		t.Error("FirstResultTime not recorded")
	}
	if m.EndTime.Before(m.StartTime) {
		t.Error("EndTime precedes StartTime")
	}
}

func TestSummaryContents(t *testing.T) {
	m := NewSessionMetrics("vosk", "sess-2", 16000)
	m.AddAudioBytes(48000) // 1.5 seconds
	m.AddTranscriptResult("done", true)
	m.Finalize()

	s := m.Summary()
	for _, want := range []string{
		"Provider: vosk",
		"Session: sess-2",
		"Audio Duration: 1.50 seconds",
		"Audio Bytes: 48000",
		"Transcript Length: 4 chars",
		"Partial Results: 0",
		"Final Results: 1",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestSummaryBeforeAnyResult(t *testing.T) {
	m := NewSessionMetrics("assemblyai", "sess-3", 16000)
	m.Finalize()

	s := m.Summary()
	if !strings.Contains(s, "Audio Duration: 0.00 seconds") {
		t.Errorf("summary for empty session:\n%s", s)
	}
	if !strings.Contains(s, "First Result Latency: 0s") {
		t.Errorf("expected zero latency when no results arrived:\n%s", s)
	}
}
