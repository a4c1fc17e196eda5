package transcriber

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	assemblyAIWebSocketURL = "wss://streaming.assemblyai.com/v3/ws"

	// AssemblyAI accepts audio chunks between 50ms and 1000ms.
	minChunkDurationMs = 50
	maxChunkDurationMs = 950
)

// AssemblyAITranscriber streams PCM to AssemblyAI's v3 realtime API.
type AssemblyAITranscriber struct {
	conn       *websocket.Conn
	results    chan TranscriptionResult
	fullText   strings.Builder
	mu         sync.Mutex
	sampleRate int
	sessionID  string

	audioBuffer []byte
	bufferMu    sync.Mutex
	minChunk    int
	maxChunk    int

	stopSending chan struct{}
	closing     chan struct{}
	wg          sync.WaitGroup
}

// assemblyAIMessage is the union of the JSON messages the API exchanges.
type assemblyAIMessage struct {
	Type               string  `json:"type"`
	ID                 string  `json:"id,omitempty"`
	ExpiresAt          int64   `json:"expires_at,omitempty"`
	Transcript         string  `json:"transcript,omitempty"`
	TurnIsFormatted    bool    `json:"turn_is_formatted,omitempty"`
	AudioDurationSec   float64 `json:"audio_duration_seconds,omitempty"`
	SessionDurationSec float64 `json:"session_duration_seconds,omitempty"`
	Error              string  `json:"error,omitempty"`
}

// NewAssemblyAI connects to AssemblyAI and starts the sender and reader
// goroutines.
func NewAssemblyAI(apiKey string, sampleRate int) (*AssemblyAITranscriber, error) {
	return newAssemblyAI(apiKey, sampleRate, assemblyAIWebSocketURL)
}

func newAssemblyAI(apiKey string, sampleRate int, wsURL string) (*AssemblyAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}

	url := fmt.Sprintf("%s?sample_rate=%d&format_turns=true", wsURL, sampleRate)

	header := http.Header{}
	header.Add("Authorization", apiKey)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}

	bytesPerSecond := sampleRate * 2
	at := &AssemblyAITranscriber{
		conn:        conn,
		results:     make(chan TranscriptionResult, 100),
		sampleRate:  sampleRate,
		audioBuffer: make([]byte, 0, bytesPerSecond/10),
		minChunk:    minChunkDurationMs * bytesPerSecond / 1000,
		maxChunk:    maxChunkDurationMs * bytesPerSecond / 1000,
		stopSending: make(chan struct{}),
		closing:     make(chan struct{}),
	}

	go at.handleResults()

	at.wg.Add(1)
	go at.audioSender()

	return at, nil
}

// ProcessAudio buffers PCM for the sender goroutine.
func (at *AssemblyAITranscriber) ProcessAudio(audioData []byte) error {
	at.bufferMu.Lock()
	defer at.bufferMu.Unlock()
	at.audioBuffer = append(at.audioBuffer, audioData...)
	return nil
}

// audioSender flushes buffered audio every 50ms so chunks stay inside the
// API's duration window regardless of the capture frame size.
func (at *AssemblyAITranscriber) audioSender() {
	defer at.wg.Done()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			at.sendBufferedAudio()
		case <-at.stopSending:
			at.sendBufferedAudio()
			return
		}
	}
}

func (at *AssemblyAITranscriber) sendBufferedAudio() {
	at.bufferMu.Lock()
	defer at.bufferMu.Unlock()

	for len(at.audioBuffer) >= at.minChunk {
		chunkSize := len(at.audioBuffer)
		if chunkSize > at.maxChunk {
			chunkSize = at.maxChunk
		}

		if err := at.conn.WriteMessage(websocket.BinaryMessage, at.audioBuffer[:chunkSize]); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Failed to send audio to AssemblyAI: %v", err)
			}
			at.audioBuffer = at.audioBuffer[:0]
			return
		}

		at.audioBuffer = at.audioBuffer[chunkSize:]
	}
}

func (at *AssemblyAITranscriber) handleResults() {
	defer close(at.results)

	for {
		_, message, err := at.conn.ReadMessage()
		if err != nil {
			select {
			case <-at.closing:
				// Local shutdown, not a stream failure.
			default:
				// Anything but a clean close frame is a failure the
				// session must hear about, including abrupt TCP drops
				// that never produce a close frame at all.
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("AssemblyAI WebSocket error: %v", err)
					at.results <- TranscriptionResult{Err: err}
				}
			}
			return
		}

		var msg assemblyAIMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to parse AssemblyAI message: %v", err)
			continue
		}

		switch msg.Type {
		case "Begin":
			at.sessionID = msg.ID
			log.Printf("AssemblyAI session started: %s", msg.ID)

		case "Turn":
			if msg.Transcript == "" {
				continue
			}
			if msg.TurnIsFormatted {
				at.mu.Lock()
				if at.fullText.Len() > 0 {
					at.fullText.WriteString(" ")
				}
				at.fullText.WriteString(msg.Transcript)
				at.mu.Unlock()

				at.results <- TranscriptionResult{Text: msg.Transcript, IsFinal: true}
			} else {
				at.results <- TranscriptionResult{Text: msg.Transcript, IsFinal: false}
			}

		case "Termination":
			log.Printf("AssemblyAI session ended. Audio duration: %.2fs, Session duration: %.2fs",
				msg.AudioDurationSec, msg.SessionDurationSec)

		case "Error":
			log.Printf("AssemblyAI error: %s", msg.Error)
			at.results <- TranscriptionResult{Err: fmt.Errorf("assemblyai: %s", msg.Error)}
		}
	}
}

// Results returns the transcript update channel.
func (at *AssemblyAITranscriber) Results() <-chan TranscriptionResult {
	return at.results
}

// GetFullTranscript returns all formatted turns received so far.
func (at *AssemblyAITranscriber) GetFullTranscript() string {
	at.mu.Lock()
	defer at.mu.Unlock()
	return at.fullText.String()
}

// SessionID returns the backend's session id, once the Begin message has
// arrived.
func (at *AssemblyAITranscriber) SessionID() string {
	return at.sessionID
}

// Close flushes remaining audio, asks the API to terminate the session, and
// closes the connection after the server has had time to deliver the final
// turn.
func (at *AssemblyAITranscriber) Close() error {
	close(at.stopSending)
	at.wg.Wait()

	// Push out whatever is left, even below the minimum chunk size.
	at.bufferMu.Lock()
	if len(at.audioBuffer) > 0 {
		_ = at.conn.WriteMessage(websocket.BinaryMessage, at.audioBuffer)
		at.audioBuffer = at.audioBuffer[:0]
	}
	at.bufferMu.Unlock()

	terminate, err := json.Marshal(assemblyAIMessage{Type: "Terminate"})
	if err == nil {
		if err := at.conn.WriteMessage(websocket.TextMessage, terminate); err == nil {
			time.Sleep(500 * time.Millisecond)
		}
	}

	close(at.closing)
	return at.conn.Close()
}
