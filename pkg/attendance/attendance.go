package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/remote"
	log "github.com/sirupsen/logrus"
)

var ErrAlreadyActive = errors.New("already clocked in")
var ErrNoActiveSession = errors.New("no active session")

type State string

const (
	StateIdle   State = "Idle"
	StateActive State = "Active"
)

// SessionStore is the attendance part of the record store.
type SessionStore interface {
	ClockAction(ctx context.Context, action remote.ClockAction) (remote.ClockState, error)
	ClockStatus(ctx context.Context) (remote.ClockState, error)
}

// Machine tracks whether the employee is clocked in. The record store is
// the authority; the machine mirrors its last known answer.
type Machine struct {
	store SessionStore
	clock utils.Clock

	mu        sync.Mutex
	state     State
	loginTime time.Time
}

func NewMachine(store SessionStore, clock utils.Clock) *Machine {
	return &Machine{
		store: store,
		clock: clock,
		state: StateIdle,
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LoginTime is zero while Idle.
func (m *Machine) LoginTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginTime
}

// Load reads the session state from the record store.
func (m *Machine) Load(ctx context.Context) (State, error) {
	status, err := m.store.ClockStatus(ctx)
	if err != nil {
		log.Errorf("failed to load attendance status: %v", err)
		return m.State(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if status.IsActive {
		m.activate(status.LoginTime)
	} else {
		m.reset()
	}
	return m.state, nil
}

// Start opens a session.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateActive {
		return ErrAlreadyActive
	}

	result, err := m.store.ClockAction(ctx, remote.ClockStart)
	if errors.Is(err, remote.ErrConflict) {
		m.adoptOpenSession(ctx)
		return fmt.Errorf("%w: %v", ErrAlreadyActive, err)
	}
	if err != nil {
		log.Errorf("failed to clock in: %v", err)
		return err
	}
	loginTime := result.LoginTime
	if loginTime.IsZero() {
		loginTime = m.clock.Now()
	}
	m.activate(loginTime)
	log.Infof("clocked in at %s", m.loginTime.Format(time.RFC3339))
	return nil
}

// Stop closes the open session.
func (m *Machine) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.store.ClockAction(ctx, remote.ClockStop)
	if errors.Is(err, remote.ErrConflict) {
		m.reset()
		return fmt.Errorf("%w: %v", ErrNoActiveSession, err)
	}
	if err != nil {
		log.Errorf("failed to clock out: %v", err)
		return err
	}
	log.Infof("clocked out after %s", m.elapsed().Truncate(time.Second))
	m.reset()
	return nil
}

// Elapsed is the time since clocking in, zero while Idle.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed()
}

func (m *Machine) elapsed() time.Duration {
	if m.state != StateActive || m.loginTime.IsZero() {
		return 0
	}
	d := m.clock.Now().Sub(m.loginTime)
	if d < 0 {
		return 0
	}
	return d
}

// adoptOpenSession mirrors a session opened on another device. The login
// time stays zero, and Elapsed with it, when the store cannot tell it.
func (m *Machine) adoptOpenSession(ctx context.Context) {
	status, err := m.store.ClockStatus(ctx)
	if err != nil {
		log.Warnf("session already open, login time unknown: %v", err)
		m.activate(time.Time{})
		return
	}
	if !status.IsActive {
		// closed again in the meantime
		m.reset()
		return
	}
	m.activate(status.LoginTime)
}

// activate marks the machine Active. A zero loginTime means unknown.
func (m *Machine) activate(loginTime time.Time) {
	m.state = StateActive
	m.loginTime = loginTime
}

func (m *Machine) reset() {
	m.state = StateIdle
	m.loginTime = time.Time{}
}
