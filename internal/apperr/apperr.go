// Package apperr classifies service errors so the HTTP and WebSocket layers can
// pick a status code without knowing which component failed.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups failures by how callers should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindUpstream
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

var (
	ErrUnsupportedFormat = &Error{Kind: KindValidation, Msg: "Only PDF files are supported"}
	ErrExtraction        = &Error{Kind: KindUpstream, Msg: "failed to extract text from document"}
	ErrUnknownSession    = &Error{Kind: KindNotFound, Msg: "Extracted text for the requested file not found"}
	ErrSynthesis         = &Error{Kind: KindUpstream, Msg: "speech synthesis failed"}
	ErrUpload            = &Error{Kind: KindUpstream, Msg: "blob upload failed"}
	ErrProcessingFailed  = &Error{Kind: KindUpstream, Msg: "Video processing failed"}
	ErrInference         = &Error{Kind: KindUpstream, Msg: "model inference failed"}
)

// Error carries a Kind, an optional operation name and the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by identity first, then by Kind and message so that a
// wrapped copy produced by Wrap still satisfies errors.Is(err, Sentinel).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return e.Kind == t.Kind && e.Msg == t.Msg && t.Op == "" && t.Err == nil
}

// Wrap returns a copy of sentinel annotated with op and cause.
func Wrap(sentinel *Error, op string, cause error) error {
	return &Error{Kind: sentinel.Kind, Op: op, Msg: sentinel.Msg, Err: cause}
}

// New builds an ad-hoc classified error.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps err to the status code a handler should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Validation and not-found
// errors expose only their own message; everything else passes the full chain
// through, matching how upstream failures are reported to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindValidation || e.Kind == KindNotFound) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
