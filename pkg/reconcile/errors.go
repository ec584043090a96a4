package reconcile

import (
	"errors"
	"fmt"
	"time"
)

// Phase names what a slot was waiting for.
type Phase string

const (
	PhasePlaceholder Phase = "placeholder"
	PhaseArrival     Phase = "content chunk"
	PhaseContent     Phase = "content end"
)

// ErrStopped is returned for slots abandoned because the reconciler stopped.
var ErrStopped = errors.New("reconcile: stopped")

// ErrSlotRemoved is returned when a placeholder or its content disappears
// between being found and being reconciled.
var ErrSlotRemoved = errors.New("reconcile: slot removed from document")

// TimeoutError reports a slot that was not complete in time: its
// placeholder, its content chunk or the end of that chunk never appeared.
// The placeholder is left as it is.
type TimeoutError struct {
	SlotID  string
	Phase   Phase
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reconcile: slot %s: timed out after %s waiting for %s", e.SlotID, e.Timeout, e.Phase)
}

// Code returns the error registry code.
func (e *TimeoutError) Code() string { return "E140" }
