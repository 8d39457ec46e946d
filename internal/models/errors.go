// ABOUTME: Typed pipeline errors for missing inputs, decoding, and store writes.
// ABOUTME: Every error is fatal; callers classify them with errors.As.
package models

import (
	"errors"
	"fmt"
)

// ErrUnmappedHabit is matched by UnmappedHabitError via errors.Is.
var ErrUnmappedHabit = errors.New("unmapped habit name")

// MissingInputError reports a source that is absent or unreadable.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %s: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// DecodeError reports a malformed cell, header, or record in a source.
// Row is 1-based and counts data rows after the header; zero means file level.
type DecodeError struct {
	Source string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("decode %s row %d column %q value %q: %v", e.Source, e.Row, e.Column, e.Value, e.Err)
	case e.Row > 0:
		return fmt.Sprintf("decode %s row %d: %v", e.Source, e.Row, e.Err)
	default:
		return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StoreWriteError reports a failure writing a warehouse table.
type StoreWriteError struct {
	Table string
	Err   error
}

func (e *StoreWriteError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store write: %v", e.Err)
	}
	return fmt.Sprintf("store write %s: %v", e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// UnmappedHabitError is raised under the fail unmapped policy.
type UnmappedHabitError struct {
	Source string
	Name   string
}

func (e *UnmappedHabitError) Error() string {
	return fmt.Sprintf("%s: habit %q has no id mapping", e.Source, e.Name)
}

func (e *UnmappedHabitError) Is(target error) bool { return target == ErrUnmappedHabit }
