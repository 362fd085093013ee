package main

import "fmt"

// ErrorKind classifies why the engine rejected a call. Every rejection is
// local and recoverable: a rejected call makes no mutation.
type ErrorKind int

const (
	ErrWrongPhase ErrorKind = iota
	ErrRoleMismatch
	ErrInvalidTarget
	ErrResourceExhausted
	ErrRepeatTarget
	ErrBound
	ErrNotEnoughPlayers
	ErrAlreadyStarted
	ErrAmbiguous
)

func (k ErrorKind) String() string {
	switch k {
	case ErrWrongPhase:
		return "wrong phase"
	case ErrRoleMismatch:
		return "role mismatch"
	case ErrInvalidTarget:
		return "invalid target"
	case ErrResourceExhausted:
		return "resource exhausted"
	case ErrRepeatTarget:
		return "repeat target"
	case ErrBound:
		return "bound"
	case ErrNotEnoughPlayers:
		return "not enough players"
	case ErrAlreadyStarted:
		return "already started"
	case ErrAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// GameError carries the machine-readable kind plus an optional detail string.
// The detail is diagnostic only; user-facing wording belongs to the caller.
type GameError struct {
	Kind   ErrorKind
	Detail string
}

func (e *GameError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func errf(kind ErrorKind, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// errKind extracts the kind from an engine error, for callers that switch on
// the taxonomy. Returns ok=false for nil or foreign errors.
func errKind(err error) (ErrorKind, bool) {
	if ge, ok := err.(*GameError); ok {
		return ge.Kind, true
	}
	return 0, false
}
