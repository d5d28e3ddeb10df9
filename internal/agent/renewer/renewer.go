// Package renewer keeps an agent's access token fresh by renewing it on a
// fixed cadence in the background. It distinguishes transient gateway
// outages, which it rides out, from definite session loss, which it reports
// once and then stops.
package renewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

// State is the renewer's lifecycle phase.
type State string

const (
	// StateIdle: created, not started.
	StateIdle State = "idle"
	// StateScheduled: waiting for the next tick.
	StateScheduled State = "scheduled"
	// StateRunning: a renewal attempt is in flight.
	StateRunning State = "running"
	// StateBackingOff: renewals are failing transiently; still retrying.
	StateBackingOff State = "backing-off"
	// StateStopped: stopped, either by Stop or after session loss.
	StateStopped State = "stopped"
)

// GatewayClient is the client surface the renewer drives.
type GatewayClient interface {
	RenewToken(ctx context.Context) error
	CheckSession(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// Renewer renews the access token every interval. After failureThreshold
// consecutive transient failures it escalates: first a session probe, and
// only if the gateway definitively rejects the session does it log out and
// stop. A plain unreachable gateway never terminates the session.
type Renewer struct {
	client           GatewayClient
	interval         time.Duration
	failureThreshold int

	// onSessionLost is invoked once, from the renewal goroutine, when the
	// session is definitively gone.
	onSessionLost func()

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	failures int
	inFlight bool
}

func New(client GatewayClient, interval time.Duration, failureThreshold int, onSessionLost func()) *Renewer {
	if onSessionLost == nil {
		onSessionLost = func() {}
	}
	return &Renewer{
		client:           client,
		interval:         interval,
		failureThreshold: failureThreshold,
		onSessionLost:    onSessionLost,
		state:            StateIdle,
	}
}

// State returns the current lifecycle phase.
func (r *Renewer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start schedules the first renewal. Starting an already started renewer is
// a no-op; a stopped renewer can be started again after a fresh login.
func (r *Renewer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle && r.state != StateStopped {
		return
	}
	r.failures = 0
	r.schedule(ctx, r.interval)
}

// Stop cancels the pending timer and halts renewal. Safe to call multiple
// times and from any goroutine.
func (r *Renewer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Renewer) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.state = StateStopped
}

// schedule arms the timer. Caller holds the lock.
func (r *Renewer) schedule(ctx context.Context, d time.Duration) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.state = StateScheduled
	r.timer = time.AfterFunc(d, func() { r.tick(ctx) })
}

func (r *Renewer) tick(ctx context.Context) {
	r.mu.Lock()
	if r.state == StateStopped {
		r.mu.Unlock()
		return
	}
	if r.inFlight {
		// the previous attempt is still running; skip this tick rather
		// than pile up concurrent renewals
		r.schedule(ctx, r.interval)
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.state = StateRunning
	r.mu.Unlock()

	err := r.client.RenewToken(ctx)

	switch {
	case err == nil:
		r.afterAttempt(ctx, true)

	case errors.Is(err, common.ErrNoActiveSession):
		// the gateway rejected the session outright
		r.lose()

	default:
		if r.afterAttempt(ctx, false) {
			r.escalate(ctx)
		}
	}
}

// afterAttempt records the outcome of one renewal attempt and reschedules.
// For a failed attempt it reports whether the failure streak has reached
// the escalation threshold.
func (r *Renewer) afterAttempt(ctx context.Context, ok bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false

	if r.state == StateStopped {
		return false
	}

	if ok {
		r.failures = 0
		r.schedule(ctx, r.interval)
		return false
	}

	r.failures++
	if r.failures >= r.failureThreshold {
		return true
	}
	r.schedule(ctx, r.interval)
	r.state = StateBackingOff
	return false
}

// escalate runs after failureThreshold consecutive transient failures. The
// session probe gets a definite verdict; only a definite rejection ends the
// session. No verdict means keep backing off.
func (r *Renewer) escalate(ctx context.Context) {
	valid, probeErr := r.client.CheckSession(ctx)

	if probeErr == nil && !valid {
		_ = r.client.Logout(ctx)
		r.lose()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateStopped {
		return
	}
	if probeErr == nil && valid {
		r.failures = 0
	}
	r.schedule(ctx, r.interval)
	r.state = StateBackingOff
}

// lose stops the renewer and reports the session loss exactly once.
func (r *Renewer) lose() {
	r.mu.Lock()
	alreadyStopped := r.state == StateStopped
	r.inFlight = false
	r.stopLocked()
	r.mu.Unlock()

	if !alreadyStopped {
		r.onSessionLost()
	}
}
