package smf

import "fmt"

// trackNotFoundError signals a track index outside the file, so the HTTP
// layer can map it to 404 instead of 500.
type trackNotFoundError struct{ index int }

func (e trackNotFoundError) Error() string {
	return fmt.Sprintf("track %d not found", e.index)
}

// IsTrackNotFound reports whether err indicates a missing track index.
func IsTrackNotFound(err error) bool {
	_, ok := err.(trackNotFoundError)
	return ok
}
