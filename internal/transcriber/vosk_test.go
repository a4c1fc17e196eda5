package transcriber

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeVosk runs handler on every upgraded connection, any path.
func fakeVosk(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVoskPartialAndFinalResults(t *testing.T) {
	srv := fakeVosk(t, func(conn *websocket.Conn) {
		send := func(res voskResult) {
			data, _ := json.Marshal(res)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.Errorf("server write failed: %v", err)
			}
		}

		send(voskResult{Partial: "hello wor"})
		send(voskResult{Text: "hello world"})

		// Wait for the EOF marker, flush, then drain until the client
		// closes.
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(data), "eof") {
				send(voskResult{Text: "goodbye"})
				for {
					if _, _, err := conn.ReadMessage(); err != nil {
						return
					}
				}
			}
		}
	})

	vt, err := NewVosk(wsURL(srv), 16000)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	var results []TranscriptionResult
	timeout := time.After(3 * time.Second)
	for len(results) < 2 {
		select {
		case res, ok := <-vt.Results():
			if !ok {
				t.Fatalf("results channel closed after %d results", len(results))
			}
			results = append(results, res)
		case <-timeout:
			t.Fatalf("timed out, have %d results", len(results))
		}
	}

	if results[0].IsFinal || results[0].Text != "hello wor" {
		t.Errorf("expected partial first, got %+v", results[0])
	}
	if !results[1].IsFinal || results[1].Text != "hello world" {
		t.Errorf("expected final, got %+v", results[1])
	}

	if err := vt.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sawFlushed := false
	for res := range vt.Results() {
		if res.Err != nil {
			t.Errorf("unexpected stream error on clean shutdown: %v", res.Err)
		}
		if res.IsFinal && res.Text == "goodbye" {
			sawFlushed = true
		}
	}
	if !sawFlushed {
		t.Error("final result flushed by EOF was lost")
	}

	if got := vt.GetFullTranscript(); got != "hello world goodbye" {
		t.Errorf("full transcript = %q", got)
	}
}

func TestVoskAbruptDisconnectSurfacesError(t *testing.T) {
	dropped := make(chan struct{})

	srv := fakeVosk(t, func(conn *websocket.Conn) {
		if tcp, ok := conn.UnderlyingConn().(*net.TCPConn); ok {
			_ = tcp.SetLinger(0)
		}
		_ = conn.UnderlyingConn().Close()
		close(dropped)
	})

	vt, err := NewVosk(wsURL(srv), 16000)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	<-dropped

	timeout := time.After(3 * time.Second)
	for {
		select {
		case res, ok := <-vt.Results():
			if !ok {
				t.Fatal("results channel closed without surfacing the disconnect")
			}
			if res.Err != nil {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for a stream error")
		}
	}
}
