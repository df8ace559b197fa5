// Package logging builds the debug logger injected into the scan
// components. Logging is off unless the TEXTSCAN_DEBUG environment
// variable is set, in which case lines go to debug.log.
package logging

import (
	"io"
	"log"
	"os"
)

// Enabled reports whether debug logging is on for this process.
func Enabled() bool {
	return os.Getenv("TEXTSCAN_DEBUG") != ""
}

// New returns the process debug logger: a no-op logger when disabled,
// otherwise one appending to debug.log (stderr if the file cannot be
// opened).
func New() *log.Logger {
	if !Enabled() {
		return log.New(io.Discard, "", 0)
	}

	f, err := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stderr, "[textscan] ", log.Ldate|log.Ltime)
	}
	return log.New(f, "", log.Lmicroseconds)
}
