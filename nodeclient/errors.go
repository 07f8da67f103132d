package nodeclient

import "fmt"

// Unreachable marks a Probe failing at the transport, auth, or parse layer.
// The Evaluator absorbs it into an excluded NodeSnapshot; it never escapes
// past that boundary.
type Unreachable struct {
	Detail string
}

func (e *Unreachable) Error() string { return fmt.Sprintf("unreachable: %s", e.Detail) }

// SubmitFailed marks a single Submit call failing. The Dispatcher's retry
// loop absorbs it and advances to the next candidate.
type SubmitFailed struct {
	Detail string
}

func (e *SubmitFailed) Error() string { return fmt.Sprintf("submit failed: %s", e.Detail) }
