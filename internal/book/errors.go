package book

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotFound reports that no artifact exists at the requested path. It
// matches fs.ErrNotExist as well.
var ErrNotFound = fmt.Errorf("book artifact not found: %w", fs.ErrNotExist)

// EncodingError reports a field that cannot be represented in an artifact,
// which means the move generator broke its contract.
type EncodingError struct {
	Field string
	Value int
	Ply   int
}

func (e *EncodingError) Error() string {
	if e.Ply == 0 {
		return fmt.Sprintf("encode: %s %d out of range", e.Field, e.Value)
	}
	return fmt.Sprintf("encode: %s %d out of range at ply %d", e.Field, e.Value, e.Ply)
}

// CorruptArtifactError reports bytes that do not decode to a forest.
type CorruptArtifactError struct {
	Offset int
	Reason string
	Err    error
}

func (e *CorruptArtifactError) Error() string {
	msg := fmt.Sprintf("corrupt artifact: %s", e.Reason)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// IOError wraps a filesystem failure while reading or writing an artifact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err means the artifact exists but is unusable.
func IsCorrupt(err error) bool {
	var ce *CorruptArtifactError
	return errors.As(err, &ce)
}
