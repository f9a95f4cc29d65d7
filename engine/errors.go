package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/encorelab/encore/audio"
)

// ErrorKind is the stable classification of a pipeline failure
type ErrorKind string

const (
	// KindAudioDecode marks an unreadable, unsupported, or truncated source
	KindAudioDecode ErrorKind = "AudioDecode"
	// KindInsufficient marks inputs with too little material for a
	// meaningful score. Non-fatal: callers receive a degraded result.
	KindInsufficient ErrorKind = "Insufficient"
	// KindAlignmentFailure marks inputs where no frames could be paired
	KindAlignmentFailure ErrorKind = "AlignmentFailure"
	// KindCancelled marks a caller-requested stop
	KindCancelled ErrorKind = "Cancelled"
	// KindInternal marks a bug: NaN leaks, impossible states
	KindInternal ErrorKind = "Internal"
)

// Error carries a classified pipeline failure
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with a kind, preserving an existing classification
func newError(kind ErrorKind, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf classifies any error surfaced by the pipeline
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	if errors.Is(err, audio.ErrDecode) {
		return KindAudioDecode
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternal
}

// classify attaches the right kind to a raw pipeline error
func classify(err error) error {
	if err == nil {
		return nil
	}
	return newError(KindOf(err), err)
}
