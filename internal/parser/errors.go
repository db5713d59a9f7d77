package parser

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the conditions met while parsing.
type Kind int

const (
	InvalidHeaderLine Kind = iota + 1
	UnsupportedEncoding
	MissingOrBrokenBoundary
	UnterminatedMultipart
	TooManyParts
	CharsetConversionFailure
	DuplicateOrRejectedRecord
	StreamOpenFailure
)

var kindNames = map[Kind]string{
	InvalidHeaderLine:         "invalid-header-line",
	UnsupportedEncoding:       "unsupported-encoding",
	MissingOrBrokenBoundary:   "missing-or-broken-boundary",
	UnterminatedMultipart:     "unterminated-multipart",
	TooManyParts:              "too-many-parts",
	CharsetConversionFailure:  "charset-conversion-failure",
	DuplicateOrRejectedRecord: "duplicate-or-rejected-record",
	StreamOpenFailure:         "stream-open-failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets kinds appear by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return errors.Errorf("unknown kind %q", text)
}

// Error is a condition met while parsing. Only StreamOpenFailure is ever
// returned; the others are recovered and kept on the record.
type Error struct {
	Kind Kind   `json:"kind"`
	Msg  string `json:"msg"`
	Err  error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is, or wraps, an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}
