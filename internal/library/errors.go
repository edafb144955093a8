package library

import (
	"errors"
	"fmt"
)

var ErrSongNotFound = errors.New("song not found")

// ConflictError reports a deletion that auto-download would immediately
// undo. Scope names the owner kind ("playlist" or "artist"), Name the
// owning entity.
type ConflictError struct {
	Scope string
	Name  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q has auto-download enabled", e.Scope, e.Name)
}

// IsConflict reports whether err is an auto-download conflict.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
