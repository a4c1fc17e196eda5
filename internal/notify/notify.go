// Package notify shows desktop notifications for session transitions.
package notify

import (
	"log"

	"github.com/gen2brain/beeep"
)

const title = "Push-to-talk"

// Show displays a desktop notification. Failures are logged, never fatal;
// a missing notification daemon must not break a recording session.
func Show(message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		log.Printf("Notification failed: %v", err)
	}
}
