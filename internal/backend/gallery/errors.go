package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by Create when the updated document
	// would pass the capacity limit. Nothing is written in that case.
	ErrCapacityExceeded = errors.New("cloud storage capacity exceeded, delete older logs to make room")
	// ErrDeleteFailed wraps any failure while deleting a record
	ErrDeleteFailed = errors.New("cloud deletion failed")
	// ErrInvalidCategory is returned for values outside the category set
	ErrInvalidCategory = errors.New("invalid category")
)

// SyncError reports a failed write of the document during Create
type SyncError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sync failed: %d. %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
