package timesheet

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid timesheet status transition")
var ErrEmptyTimesheet = errors.New("cannot submit a timesheet without hours")

// StatusMachine guards the lifecycle of a weekly timesheet. The only
// transition driven locally is Draft -> Submitted; Approved and Rejected
// are decided by the record store and only observed here.
type StatusMachine struct {
	status Status
}

func NewStatusMachine(initial Status) *StatusMachine {
	if initial == "" {
		initial = StatusDraft
	}
	return &StatusMachine{status: initial}
}

func (m *StatusMachine) Status() Status {
	return m.status
}

// Editable reports whether entries may be changed.
func (m *StatusMachine) Editable() bool {
	return m.status == StatusDraft
}

// CanSubmit checks the Draft -> Submitted transition without applying it.
func (m *StatusMachine) CanSubmit(totalHours float64) error {
	if m.status != StatusDraft {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.status, StatusSubmitted)
	}
	if totalHours <= 0 {
		return ErrEmptyTimesheet
	}
	return nil
}

func (m *StatusMachine) Submit(totalHours float64) error {
	if err := m.CanSubmit(totalHours); err != nil {
		return err
	}
	m.status = StatusSubmitted
	return nil
}

// Observe applies a status reported by the record store.
func (m *StatusMachine) Observe(remote Status) error {
	if remote == m.status {
		return nil
	}
	if m.status == StatusSubmitted && (remote == StatusApproved || remote == StatusRejected) {
		m.status = remote
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.status, remote)
}
