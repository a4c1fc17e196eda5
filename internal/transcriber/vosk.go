package transcriber

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// VoskTranscriber streams PCM to a local Vosk WebSocket server. It is the
// offline alternative to AssemblyAI; no API key leaves the machine.
type VoskTranscriber struct {
	conn     *websocket.Conn
	results  chan TranscriptionResult
	fullText strings.Builder
	mu       sync.Mutex
	closing  chan struct{}
}

type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

// NewVosk connects to a Vosk server such as ws://localhost:2700.
func NewVosk(serverURL string, sampleRate int) (*VoskTranscriber, error) {
	url := fmt.Sprintf("%s/ws?sample_rate=%d", strings.TrimRight(serverURL, "/"), sampleRate)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Vosk server: %w", err)
	}

	vt := &VoskTranscriber{
		conn:    conn,
		results: make(chan TranscriptionResult, 100),
		closing: make(chan struct{}),
	}

	go vt.handleResults()

	return vt, nil
}

// ProcessAudio sends PCM straight to the server. Vosk has no chunk-size
// window, so no intermediate buffering is needed.
func (vt *VoskTranscriber) ProcessAudio(audioData []byte) error {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	if err := vt.conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
		return fmt.Errorf("failed to send audio to Vosk: %w", err)
	}
	return nil
}

func (vt *VoskTranscriber) handleResults() {
	defer close(vt.results)

	for {
		_, message, err := vt.conn.ReadMessage()
		if err != nil {
			select {
			case <-vt.closing:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Vosk WebSocket error: %v", err)
					vt.results <- TranscriptionResult{Err: err}
				}
			}
			return
		}

		var result voskResult
		if err := json.Unmarshal(message, &result); err != nil {
			log.Printf("Failed to parse Vosk result: %v", err)
			continue
		}

		if result.Partial != "" {
			vt.results <- TranscriptionResult{Text: result.Partial, IsFinal: false}
		}

		if result.Text != "" {
			vt.mu.Lock()
			if vt.fullText.Len() > 0 {
				vt.fullText.WriteString(" ")
			}
			vt.fullText.WriteString(result.Text)
			vt.mu.Unlock()

			vt.results <- TranscriptionResult{Text: result.Text, IsFinal: true}
		}
	}
}

// Results returns the transcript update channel.
func (vt *VoskTranscriber) Results() <-chan TranscriptionResult {
	return vt.results
}

// GetFullTranscript returns all final segments received so far.
func (vt *VoskTranscriber) GetFullTranscript() string {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.fullText.String()
}

// Close asks Vosk to flush its final result and closes the connection.
func (vt *VoskTranscriber) Close() error {
	vt.mu.Lock()
	if err := vt.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		log.Printf("Failed to send EOF to Vosk: %v", err)
	}
	vt.mu.Unlock()

	// Give the server a moment to deliver the flushed final result.
	time.Sleep(200 * time.Millisecond)

	close(vt.closing)
	return vt.conn.Close()
}
