// Package capture reads microphone audio through PortAudio.
package capture

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture owns a mono 16-bit PortAudio input stream and delivers frames on
// a channel until closed.
type Capture struct {
	stream *portaudio.Stream
	in     []int16
	frames chan []int16

	stop chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Open initializes PortAudio and starts reading from the default input
// device at the given sample rate.
func Open(sampleRate, framesPerBuffer int) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("starting input stream: %w", err)
	}

	c := &Capture{
		stream: stream,
		in:     in,
		frames: make(chan []int16, 8),
		stop:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Frames returns the channel of captured frames. It is closed by Close.
func (c *Capture) Frames() <-chan []int16 {
	return c.frames
}

func (c *Capture) readLoop() {
	defer c.wg.Done()
	defer close(c.frames)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			// Overflows happen when the consumer briefly lags; anything
			// else ends the capture.
			if err == portaudio.InputOverflowed {
				continue
			}
			log.Printf("Capture read error: %v", err)
			return
		}

		frame := make([]int16, len(c.in))
		copy(frame, c.in)

		select {
		case c.frames <- frame:
		case <-c.stop:
			return
		}
	}
}

// Close stops the read loop and releases the stream and PortAudio.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()

		if err := c.stream.Stop(); err != nil {
			c.closeErr = fmt.Errorf("stopping stream: %w", err)
		}
		if err := c.stream.Close(); err != nil && c.closeErr == nil {
			c.closeErr = fmt.Errorf("closing stream: %w", err)
		}
		_ = portaudio.Terminate()
	})
	return c.closeErr
}

// Bytes converts a frame of samples to little-endian 16-bit PCM, the wire
// format the streaming transcribers expect.
func Bytes(frame []int16) []byte {
	out := make([]byte, len(frame)*2)
	for i, s := range frame {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}
