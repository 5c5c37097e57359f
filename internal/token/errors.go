package token

import (
	"errors"
	"fmt"
)

// ErrInvalidToken matches every *Error returned by Codec.Parse.
var ErrInvalidToken = errors.New("invalid token")

// Signer implementations wrap one of these so the codec can classify failures.
var (
	ErrMalformed    = errors.New("token is malformed")
	ErrBadSignature = errors.New("token signature is invalid")
)

// Reason is the closed set of parse failures.
type Reason uint8

const (
	ReasonMalformed Reason = iota + 1
	ReasonSignature
)

func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonSignature:
		return "signature"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid token (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrInvalidToken }

func classify(err error) *Error {
	if errors.Is(err, ErrBadSignature) {
		return &Error{Reason: ReasonSignature, Err: err}
	}
	return &Error{Reason: ReasonMalformed, Err: err}
}
