// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
	"math"
)

// Args is a positional argument list as carried in a transport frame.
// Elements are string, []string, or int32 when built by a [Writer].
// After a trip through CBOR they arrive as string, []any, uint64 or
// int64; [Reader] accepts both forms.
type Args []any

var (
	// ErrShortRead is returned when a read runs past the end of the
	// argument list.
	ErrShortRead = errors.New("wire: argument list exhausted")

	// ErrTypeMismatch is returned when the next argument is not of the
	// requested type.
	ErrTypeMismatch = errors.New("wire: argument type mismatch")

	// ErrBadCount is returned for a record count that is negative or
	// larger than the arguments left to hold it.
	ErrBadCount = errors.New("wire: invalid record count")

	// ErrTrailingArguments is returned when a decoder finishes its
	// schema with arguments left over.
	ErrTrailingArguments = errors.New("wire: unread trailing arguments")
)

// Writer appends arguments in order.
type Writer struct {
	args Args
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// String appends a string argument.
func (w *Writer) String(value string) {
	w.args = append(w.args, value)
}

// Strings appends a string-array argument. A nil slice is written as
// an empty array.
func (w *Writer) Strings(values []string) {
	block := make([]string, len(values))
	copy(block, values)
	w.args = append(w.args, block)
}

// Int32 appends an integer argument.
func (w *Writer) Int32(value int32) {
	w.args = append(w.args, value)
}

// Args returns the arguments written so far.
func (w *Writer) Args() Args {
	return w.args
}

// Reader consumes arguments in order.
type Reader struct {
	args     Args
	position int
}

// NewReader returns a Reader positioned at the first argument.
func NewReader(args Args) *Reader {
	return &Reader{args: args}
}

// Remaining returns the number of unread arguments.
func (r *Reader) Remaining() int {
	return len(r.args) - r.position
}

func (r *Reader) next(want string) (any, error) {
	if r.position >= len(r.args) {
		return nil, fmt.Errorf("reading %s at argument %d: %w", want, r.position, ErrShortRead)
	}
	value := r.args[r.position]
	r.position++
	return value, nil
}

// String reads a string argument.
func (r *Reader) String() (string, error) {
	value, err := r.next("string")
	if err != nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %d is %T, want string: %w", r.position-1, value, ErrTypeMismatch)
	}
	return text, nil
}

// Strings reads a string-array argument. An empty array reads as nil
// so absent collections compare equal after a round trip.
func (r *Reader) Strings() ([]string, error) {
	value, err := r.next("string array")
	if err != nil {
		return nil, err
	}
	switch block := value.(type) {
	case []string:
		if len(block) == 0 {
			return nil, nil
		}
		out := make([]string, len(block))
		copy(out, block)
		return out, nil
	case []any:
		if len(block) == 0 {
			return nil, nil
		}
		out := make([]string, len(block))
		for i, element := range block {
			text, ok := element.(string)
			if !ok {
				return nil, fmt.Errorf("argument %d element %d is %T, want string: %w", r.position-1, i, element, ErrTypeMismatch)
			}
			out[i] = text
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %d is %T, want string array: %w", r.position-1, value, ErrTypeMismatch)
	}
}

// Int32 reads an integer argument.
func (r *Reader) Int32() (int32, error) {
	value, err := r.next("int32")
	if err != nil {
		return 0, err
	}
	var wide int64
	switch number := value.(type) {
	case int32:
		return number, nil
	case int:
		wide = int64(number)
	case int64:
		wide = number
	case uint64:
		if number > math.MaxInt32 {
			return 0, fmt.Errorf("argument %d value %d overflows int32: %w", r.position-1, number, ErrTypeMismatch)
		}
		wide = int64(number)
	default:
		return 0, fmt.Errorf("argument %d is %T, want int32: %w", r.position-1, value, ErrTypeMismatch)
	}
	if wide < math.MinInt32 || wide > math.MaxInt32 {
		return 0, fmt.Errorf("argument %d value %d overflows int32: %w", r.position-1, wide, ErrTypeMismatch)
	}
	return int32(wide), nil
}

// count reads a record count and checks it against the arguments left.
// Every record occupies at least minWidth arguments.
func (r *Reader) count(minWidth int) (int, error) {
	n, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n)*minWidth > r.Remaining() {
		return 0, fmt.Errorf("count %d with %d arguments left: %w", n, r.Remaining(), ErrBadCount)
	}
	return int(n), nil
}
