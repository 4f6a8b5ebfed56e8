package scheduler

import "fmt"

// PanicError reports a job that panicked instead of returning.
type PanicError struct {
	Job   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.Job, e.Value)
}
