// Package logging provides the engine's debug/info logging utilities.
package logging

import "log"

// DebugEnabled controls whether Debug() produces output.
// Set via -debug flag or DEBUG=1 environment variable.
var DebugEnabled bool

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}

// Info logs a message unconditionally. It is used for state transitions
// an operator should see regardless of debug mode — TLS policy warnings,
// force-completed negotiations, dialect auto-detection.
func Info(format string, args ...any) {
	log.Printf("INFO: "+format, args...)
}
