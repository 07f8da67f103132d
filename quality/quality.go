// Package quality defines a narrow port for quality-profile suggestions
// surfaced per arr instance. Profile definitions live entirely in the arr
// instance's own domain, out of this system's scope, so the shipped
// Checker is a no-op; the port exists so a real one can be plugged in
// without touching the Dispatcher.
package quality

import "context"

// Suggestion is an optional hint surfaced alongside a decision; the zero
// value means "no suggestion".
type Suggestion struct {
	Present          bool
	CurrentQuality   string
	SuggestedQuality string
	Reason           string
}

// Checker evaluates whether a request warrants a quality suggestion, given
// its name, category, and estimated size.
type Checker interface {
	Check(ctx context.Context, name, category string, sizeGB float64) Suggestion
}

// NoOp always returns "no suggestion".
type NoOp struct{}

func (NoOp) Check(ctx context.Context, name, category string, sizeGB float64) Suggestion {
	return Suggestion{}
}
