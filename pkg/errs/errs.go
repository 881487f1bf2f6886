// Package errs defines the closed set of failure kinds reported by the
// memory bridge and the scene codec.
package errs

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindProcessNotFound
	KindProcessGone
	KindAccessDenied
	KindPartialRead
	KindWriteRejected
	KindUnknownField
	KindUnsupportedBuild
	KindTruncatedFile
	KindMalformedRecord
	KindIoError
	KindOutOfBounds
)

var kindNames = [...]string{
	KindUnknown:          "Unknown",
	KindProcessNotFound:  "ProcessNotFound",
	KindProcessGone:      "ProcessGone",
	KindAccessDenied:     "AccessDenied",
	KindPartialRead:      "PartialRead",
	KindWriteRejected:    "WriteRejected",
	KindUnknownField:     "UnknownField",
	KindUnsupportedBuild: "UnsupportedBuild",
	KindTruncatedFile:    "TruncatedFile",
	KindMalformedRecord:  "MalformedRecord",
	KindIoError:          "IoError",
	KindOutOfBounds:      "OutOfBounds",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrProcessNotFound  = &Error{Kind: KindProcessNotFound}
	ErrProcessGone      = &Error{Kind: KindProcessGone}
	ErrAccessDenied     = &Error{Kind: KindAccessDenied}
	ErrPartialRead      = &Error{Kind: KindPartialRead}
	ErrWriteRejected    = &Error{Kind: KindWriteRejected}
	ErrUnknownField     = &Error{Kind: KindUnknownField}
	ErrUnsupportedBuild = &Error{Kind: KindUnsupportedBuild}
	ErrTruncatedFile    = &Error{Kind: KindTruncatedFile}
	ErrMalformedRecord  = &Error{Kind: KindMalformedRecord}
	ErrIoError          = &Error{Kind: KindIoError}
	ErrOutOfBounds      = &Error{Kind: KindOutOfBounds}
)

type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels compare by kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
