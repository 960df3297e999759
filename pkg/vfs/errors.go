package vfs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConflict            = errors.New("conflict")
	ErrNoAdapter           = errors.New("no adapter configured")
	ErrNoChanges           = errors.New("no changes")
	ErrNotConflicted       = errors.New("path is not in conflict")
	ErrUnresolvedConflicts = errors.New("unresolved conflicts")
	ErrInvalidResolution   = errors.New("invalid resolution")
)

// ConflictError lists the paths a pull flagged as changed both locally and remotely.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %d paths changed locally and remotely: %s", ErrConflict, len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
