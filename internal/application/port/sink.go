package port

import "time"

// Sink receives the rendered comparison after every refresh.
type Sink interface {
	WriteSnapshot(ts time.Time, line string) error
	// NewLine terminates the live line on shutdown.
	NewLine() error
}
