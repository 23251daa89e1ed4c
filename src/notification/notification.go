package notification

import (
	"log"
)

// maxMessageLen bounds the text shown in a dialog.
const maxMessageLen = 400

// ShowInfo displays an informational dialog without blocking the caller.
func ShowInfo(title, message string) {
	message = truncate(message)
	log.Printf("NOTIFY: %s: %s", title, message)
	go func() {
		if err := showMessageBox(title, message, false); err != nil {
			log.Printf("NOTIFY: failed to show dialog: %v", err)
		}
	}()
}

// ShowBlockingError displays an error dialog and returns once it is dismissed.
func ShowBlockingError(title, message string) {
	message = truncate(message)
	log.Printf("NOTIFY: %s: %s", title, message)
	if err := showMessageBox(title, message, true); err != nil {
		log.Printf("NOTIFY: failed to show dialog: %v", err)
	}
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}
