// Package transcriber streams audio to a realtime speech-to-text backend.
package transcriber

// Transcriber is the common interface for streaming transcription providers.
type Transcriber interface {
	// ProcessAudio queues little-endian 16-bit PCM for the backend.
	ProcessAudio(audioData []byte) error
	// Results delivers partial and final transcripts. The channel closes
	// when the backend connection ends.
	Results() <-chan TranscriptionResult
	// GetFullTranscript returns the accumulated final transcript.
	GetFullTranscript() string
	// Close flushes pending audio, terminates the stream, and closes the
	// connection. Remaining results are delivered before the channel closes.
	Close() error
}

// TranscriptionResult is one transcript update from the backend.
type TranscriptionResult struct {
	Text    string
	IsFinal bool
	// Err is set when the stream reported a failure; the session should
	// save what it has.
	Err error
}
