package media

import "errors"

// Failure kinds surfaced by the resolution pipeline. Per-link failures never
// escape the pipeline; they end up as placeholder stream labels.
var (
	ErrDiscoveryEmpty       = errors.New("no server links found")
	ErrDereferenceFailed    = errors.New("dereference failed")
	ErrHostExtractionFailed = errors.New("host extraction failed")
	ErrNoPlayableStream     = errors.New("no playable stream")
)

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeEmpty OutcomeKind = iota
	OutcomeStreams
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStreams:
		return "streams"
	case OutcomeFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Outcome is the result of a single extractor call: streams, a failure, or nothing.
type Outcome struct {
	Kind    OutcomeKind
	Streams []Stream
	Err     error
}

// Found wraps extracted streams. No streams collapses to Empty.
func Found(streams ...Stream) Outcome {
	if len(streams) == 0 {
		return Empty()
	}
	return Outcome{Kind: OutcomeStreams, Streams: streams}
}

// Failed records an extraction failure.
func Failed(err error) Outcome {
	if err == nil {
		err = ErrHostExtractionFailed
	}
	return Outcome{Kind: OutcomeFailed, Err: err}
}

// Empty means the extractor ran and found nothing.
func Empty() Outcome {
	return Outcome{Kind: OutcomeEmpty}
}
