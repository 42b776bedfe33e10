package testutil

import (
	"io"
	"log"
)

// TestLogger returns a logger that discards everything, keeping test output
// readable.
func TestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
