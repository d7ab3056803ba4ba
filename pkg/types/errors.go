package types

import (
	"errors"
	"fmt"
)

// Validation errors, returned before any mutation takes place.
var (
	ErrInvalidName     = errors.New("name must not be empty")
	ErrInvalidTitle    = errors.New("title must not be empty")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidType     = errors.New("invalid test case type")
	ErrInvalidVerdict  = errors.New("invalid verdict")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidStatus   = errors.New("invalid project status")
)

// Lookup and lifecycle errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrSessionNotStarted = errors.New("execution session is not in progress")
	ErrSessionStarted    = errors.New("execution session already started")
	ErrSessionFinished   = errors.New("execution session is finished")
	ErrEmptyImport       = errors.New("import contains no records")
	ErrRepositoryClosed  = errors.New("repository is closed")
)

// ErrPersist is matched by errors.Is for every PersistError.
var ErrPersist = errors.New("persist failed")

// PersistError reports a failed write to the Repository. The in-memory
// state that triggered the write is kept; a later flush may succeed.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *PersistError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersist.
func (e *PersistError) Is(target error) bool { return target == ErrPersist }
