// Package clipboard copies transcripts to the system clipboard and can
// optionally paste them into the focused window.
package clipboard

import (
	"fmt"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// System is the real clipboard.
type System struct{}

// Copy puts text on the system clipboard.
func (System) Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// Read returns the current clipboard contents.
func (System) Read() (string, error) {
	return clipboard.ReadAll()
}

// Paste sends a paste keystroke to the focused window. The transcript stays
// on the clipboard afterwards.
func (System) Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("preparing key event: %w", err)
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)

	// The clipboard write needs a moment to settle before the keystroke.
	time.Sleep(80 * time.Millisecond)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("sending paste keystroke: %w", err)
	}
	return nil
}
