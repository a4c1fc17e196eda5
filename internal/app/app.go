// Package app runs the push-to-talk control loop: hotkey events drive the
// Idle -> Recording -> Finalizing -> Idle session lifecycle.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amanullahtanweer/pushtotalk/internal/capture"
	"github.com/amanullahtanweer/pushtotalk/internal/clipboard"
	"github.com/amanullahtanweer/pushtotalk/internal/config"
	"github.com/amanullahtanweer/pushtotalk/internal/events"
	"github.com/amanullahtanweer/pushtotalk/internal/hotkey"
	"github.com/amanullahtanweer/pushtotalk/internal/metrics"
	"github.com/amanullahtanweer/pushtotalk/internal/notify"
	"github.com/amanullahtanweer/pushtotalk/internal/session"
	"github.com/amanullahtanweer/pushtotalk/internal/sessionlog"
	"github.com/amanullahtanweer/pushtotalk/internal/transcriber"
)

// State is the control loop state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

// AudioSource is what a recording session reads frames from.
type AudioSource interface {
	Frames() <-chan []int16
	Close() error
}

// Clipboard receives the transcript at the end of a session.
type Clipboard interface {
	Copy(text string) error
	Paste() error
}

// App owns the session lifecycle. All state transitions happen on the Run
// goroutine; the hotkey listener only posts events to its channel.
type App struct {
	cfg    config.Config
	outDir string

	// Session dependencies, replaceable in tests.
	OpenSource     func() (AudioSource, error)
	NewTranscriber func() (transcriber.Transcriber, error)
	Clipboard      Clipboard
	Publisher      events.Publisher
	Notify         func(message string)

	state    State
	cur      *activeSession
	timeouts chan string
}

// activeSession bundles everything owned by one recording episode.
type activeSession struct {
	sess    *session.Session
	src     AudioSource
	tr      transcriber.Transcriber
	metrics *metrics.SessionMetrics
	slog    *sessionlog.Logger
	toggle  bool

	stopTimer   *time.Timer
	pumpDone    chan struct{}
	resultsDone chan struct{}
	streamErr   error
}

// New wires an App with the real capture, transcriber, clipboard, and event
// publisher implementations.
func New(cfg config.Config) (*App, error) {
	outDir, err := cfg.OutputDir()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		outDir:   outDir,
		state:    StateIdle,
		timeouts: make(chan string, 1),

		Clipboard: clipboard.System{},
		Publisher: events.NoopPublisher{},
		Notify:    func(string) {},
	}

	a.OpenSource = func() (AudioSource, error) {
		return capture.Open(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)
	}
	a.NewTranscriber = func() (transcriber.Transcriber, error) {
		switch cfg.Transcriber.Provider {
		case "vosk":
			return transcriber.NewVosk(cfg.Transcriber.VoskServerURL, cfg.Audio.SampleRate)
		case "assemblyai":
			return transcriber.NewAssemblyAI(cfg.Transcriber.APIKey, cfg.Audio.SampleRate)
		default:
			return nil, fmt.Errorf("unknown transcriber provider: %s", cfg.Transcriber.Provider)
		}
	}
	if cfg.Events.RedisAddr != "" {
		a.Publisher = events.NewRedisPublisher(cfg.Events.RedisAddr, cfg.Events.RedisChannel)
	}
	if cfg.Notify.Desktop {
		a.Notify = notify.Show
	}

	return a, nil
}

// State returns the current lifecycle state.
func (a *App) State() State {
	return a.state
}

// OutDir returns the resolved output directory.
func (a *App) OutDir() string {
	return a.outDir
}

// Run consumes hotkey events until the channel closes, the context is
// canceled, or a Quit event arrives. An active session is stopped and
// finalized before returning.
func (a *App) Run(ctx context.Context, evs <-chan hotkey.Event) error {
	if a.cfg.Hotkey.Toggle != "" {
		log.Printf("Ready. Hold %s to talk, %s toggles hands-free, ESC quits.",
			a.cfg.Hotkey.PushToTalk, a.cfg.Hotkey.Toggle)
	} else {
		log.Printf("Ready. Hold %s to talk, ESC quits.", a.cfg.Hotkey.PushToTalk)
	}

	defer func() {
		if err := a.Publisher.Close(); err != nil {
			log.Printf("Closing event publisher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return nil

		case id := <-a.timeouts:
			if a.state == StateRecording && a.cur != nil && a.cur.sess.ID.String() == id {
				log.Printf("Session %s reached max duration, stopping", id)
				a.stopSession()
			}

		case ev, ok := <-evs:
			if !ok {
				a.shutdown()
				return nil
			}
			switch ev.Kind {
			case hotkey.Pressed:
				a.handlePress()
			case hotkey.Released:
				a.handleRelease()
			case hotkey.Toggled:
				a.handleToggle()
			case hotkey.Quit:
				a.shutdown()
				return nil
			}
		}
	}
}

// handlePress starts a push-to-talk session. A press during an active
// session is a no-op.
func (a *App) handlePress() {
	if a.state != StateIdle {
		if a.cur != nil && a.cur.toggle {
			log.Printf("Already recording hands-free; %s stops it", a.cfg.Hotkey.Toggle)
		}
		return
	}
	a.startSession(false)
}

func (a *App) handleRelease() {
	if a.state != StateRecording || a.cur == nil || a.cur.toggle {
		return
	}
	a.stopSession()
}

// handleToggle starts a hands-free session, or stops the one it started.
func (a *App) handleToggle() {
	switch {
	case a.state == StateIdle:
		a.startSession(true)
	case a.state == StateRecording && a.cur != nil && a.cur.toggle:
		a.stopSession()
	default:
		// Push-to-talk session in progress; the toggle does not steal it.
	}
}

func (a *App) startSession(toggle bool) {
	tr, err := a.NewTranscriber()
	if err != nil {
		log.Printf("Failed to start transcriber: %v", err)
		return
	}
	src, err := a.OpenSource()
	if err != nil {
		_ = tr.Close()
		log.Printf("Failed to open audio input: %v", err)
		return
	}

	sess := session.New(a.cfg.Audio.SampleRate)
	cur := &activeSession{
		sess:        sess,
		src:         src,
		tr:          tr,
		toggle:      toggle,
		metrics:     metrics.NewSessionMetrics(a.cfg.Transcriber.Provider, sess.ID.String(), a.cfg.Audio.SampleRate),
		pumpDone:    make(chan struct{}),
		resultsDone: make(chan struct{}),
	}

	if a.cfg.Output.SessionLog {
		slog, err := sessionlog.New(a.outDir, sess.ID.String(), sess.Started)
		if err != nil {
			log.Printf("Session %s: session log unavailable: %v", sess.ID, err)
		} else {
			cur.slog = slog
			slog.SessionStart(sess.ID.String(), a.cfg.Transcriber.Provider, a.cfg.Audio.SampleRate)
		}
	}

	go a.pumpAudio(cur)
	go a.consumeResults(cur)

	id := sess.ID.String()
	cur.stopTimer = time.AfterFunc(a.cfg.MaxSession(), func() {
		select {
		case a.timeouts <- id:
		default:
		}
	})

	a.cur = cur
	a.state = StateRecording

	a.publish("recording_started", id, "")
	a.Notify("Recording started")
	log.Printf("Session %s started (%s)", id, a.cfg.Transcriber.Provider)
}

// pumpAudio forwards captured frames to the session buffer and the
// transcriber until the capture closes.
func (a *App) pumpAudio(cur *activeSession) {
	defer close(cur.pumpDone)

	for frame := range cur.src.Frames() {
		cur.sess.AppendAudio(frame)

		data := capture.Bytes(frame)
		cur.metrics.AddAudioBytes(len(data))
		if err := cur.tr.ProcessAudio(data); err != nil {
			log.Printf("Session %s: failed to process audio: %v", cur.sess.ID, err)
		}
	}
}

// consumeResults applies transcript updates to the session until the
// transcriber's result channel closes. Finalized turns refresh the
// incremental save and the clipboard, so a crash loses at most one turn.
func (a *App) consumeResults(cur *activeSession) {
	defer close(cur.resultsDone)

	for res := range cur.tr.Results() {
		if res.Err != nil {
			cur.streamErr = res.Err
			log.Printf("Session %s: stream error: %v", cur.sess.ID, res.Err)
			if cur.slog != nil {
				cur.slog.StreamError(cur.sess.ID.String(), res.Err)
			}
			if path, err := cur.sess.SaveEmergency(a.outDir); err != nil {
				log.Printf("Session %s: emergency save failed: %v", cur.sess.ID, err)
			} else if path != "" {
				log.Printf("Session %s: emergency save written to %s", cur.sess.ID, path)
			}
			continue
		}

		cur.metrics.AddTranscriptResult(res.Text, res.IsFinal)

		if res.IsFinal {
			cur.sess.AddTurn(res.Text)
			if cur.slog != nil {
				cur.slog.Turn(cur.sess.ID.String(), res.Text)
			}
			if err := cur.sess.SaveIncremental(a.outDir); err != nil {
				log.Printf("Session %s: incremental save failed: %v", cur.sess.ID, err)
			}
			if err := a.Clipboard.Copy(cur.sess.Transcript()); err != nil {
				log.Printf("Session %s: clipboard update failed: %v", cur.sess.ID, err)
			}
		} else {
			cur.sess.SetPartial(res.Text)
		}
	}
}

// stopSession tears down the active session in order: capture first so no
// audio is written after the stream closes, then the transcriber so the
// remaining results drain, then the output pair.
func (a *App) stopSession() {
	cur := a.cur
	if cur == nil {
		return
	}
	a.state = StateFinalizing
	cur.stopTimer.Stop()

	if err := cur.src.Close(); err != nil {
		log.Printf("Session %s: closing capture: %v", cur.sess.ID, err)
	}
	<-cur.pumpDone

	if err := cur.tr.Close(); err != nil {
		log.Printf("Session %s: closing transcriber: %v", cur.sess.ID, err)
	}
	<-cur.resultsDone

	id := cur.sess.ID.String()

	if cur.streamErr != nil {
		a.Notify("Transcription stream failed; transcript may be incomplete")
	}

	out, err := cur.sess.Finalize(a.outDir)
	if err != nil {
		log.Printf("Session %s: finalize failed: %v", id, err)
		if path, eerr := cur.sess.SaveEmergency(a.outDir); eerr == nil && path != "" {
			log.Printf("Session %s: emergency save written to %s", id, path)
		}
	} else {
		log.Printf("Session %s: saved %s and %s (%d chars)", id, out.WavPath, out.TextPath, len(out.Text))

		if err := a.Clipboard.Copy(out.Text); err != nil {
			log.Printf("Session %s: clipboard copy failed: %v", id, err)
		} else if a.cfg.Notify.Paste && out.Text != "" {
			if err := a.Clipboard.Paste(); err != nil {
				log.Printf("Session %s: paste failed: %v", id, err)
			}
		}

		if cur.slog != nil {
			cur.slog.Finalize(id, out.WavPath, out.TextPath, len(out.Text))
		}
		if out.Text != "" {
			a.publish("transcript", id, out.Text)
		}
	}

	cur.metrics.Finalize()
	log.Printf("Session %s finished:\n%s", id, cur.metrics.Summary())

	if cur.slog != nil {
		_ = cur.slog.Close()
	}
	a.publish("recording_stopped", id, "")
	a.Notify("Recording finished")

	a.cur = nil
	a.state = StateIdle
}

// shutdown stops and finalizes an in-flight session before the process
// exits.
func (a *App) shutdown() {
	if a.state == StateRecording && a.cur != nil {
		log.Printf("Shutting down with an active session; finalizing first")
		a.stopSession()
	}
}

func (a *App) publish(typ, sessionID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := a.Publisher.Publish(ctx, events.Event{Type: typ, SessionID: sessionID, Text: text})
	if err != nil {
		log.Printf("Event publish failed: %v", err)
	}
}
