// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every FormatError.
var ErrMalformed = errors.New("malformed result record")

// FormatError reports a result record that can't be decoded.
type FormatError struct {
	// Field is the offending key, empty when the problem isn't tied to one.
	Field string
	// Index is the position of the offending pair, -1 outside the pairs array.
	Index int
	Err   error
}

func (e *FormatError) Error() string {
	var where string

	switch {
	case e.Index >= 0 && e.Field != "":
		where = fmt.Sprintf("pairs[%d].%s", e.Index, e.Field)
	case e.Index >= 0:
		where = fmt.Sprintf("pairs[%d]", e.Index)
	case e.Field != "":
		where = e.Field
	}

	msg := ErrMalformed.Error()
	if where != "" {
		msg += " at " + where
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}

	return []error{ErrMalformed, e.Err}
}

// IsMissingField reports whether err is a FormatError for an absent key.
func IsMissingField(err error) bool {
	var fe *FormatError
	if errors.As(err, &fe) {
		return errors.Is(fe.Err, errMissing)
	}

	return false
}

var errMissing = errors.New("required field is missing")

func missing(field string, index int) error {
	return &FormatError{Field: field, Index: index, Err: errMissing}
}
