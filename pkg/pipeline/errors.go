package pipeline

import "github.com/pkg/errors"

// Error kinds from spec.md §7. EAGAIN and EOF from the codec backend are
// control signals, not errors, and never appear here.
var (
	ErrBackendInitFailure  = errors.New("codec backend could not be initialized")
	ErrSourceOpenFailure   = errors.New("source file not found, unreadable, or unrecognised container")
	ErrNoVideoStream       = errors.New("container has no video stream")
	ErrDecoderSetupFailure = errors.New("codec parameters could not be realized")
	ErrSeekFailure         = errors.New("backend refused seek target")
	ErrDecodeFailure       = errors.New("decode failure")
	ErrScaleFailure        = errors.New("colorspace/scale conversion failed")
	ErrDisplayFailure      = errors.New("texture create/upload/present failed")
	ErrShutdownError       = errors.New("worker exited with error during shutdown")
)

// Stage identifies which pipeline component raised a fatal error, for the
// "contextual message identifying the failing stage" requirement.
type Stage string

const (
	StageDemuxer   Stage = "demuxer"
	StageDecoder   Stage = "decoder"
	StagePresenter Stage = "presenter"
)

// StageError wraps an error kind with the stage that produced it and any
// underlying cause, preserving a stack trace from the cgo boundary.
type StageError struct {
	Stage Stage
	Kind  error
	cause error
}

func (e *StageError) Error() string {
	if e.cause != nil {
		return string(e.Stage) + ": " + e.Kind.Error() + ": " + e.cause.Error()
	}
	return string(e.Stage) + ": " + e.Kind.Error()
}

func (e *StageError) Unwrap() error { return e.Kind }

// Cause returns the underlying error that triggered Kind, if any.
func (e *StageError) Cause() error { return e.cause }

// Fatal wraps cause as kind, attributed to stage, with a stack trace.
func Fatal(stage Stage, kind error, cause error) error {
	if cause == nil {
		return errors.WithStack(&StageError{Stage: stage, Kind: kind})
	}
	return errors.WithStack(&StageError{Stage: stage, Kind: kind, cause: errors.WithStack(cause)})
}
