package export

import (
	"errors"
	"fmt"
)

var (
	ErrExportInProgress  = errors.New("an export is already running")
	ErrNothingToExport   = errors.New("no tables yielded data")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// RunError ties a failure to the run that produced it and the stage it
// happened in.
type RunError struct {
	RunID string
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("export %s failed during %s: %v", e.RunID, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
