// Package channel tracks the half-duplex busy/idle state of a radio's
// channel, derived from device-state LED events emitted on the serial link.
package channel

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reason labels why the channel is currently considered busy.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSending
	ReasonReceiving
	ReasonIdle
)

func (r Reason) String() string {
	switch r {
	case ReasonSending:
		return "sending"
	case ReasonReceiving:
		return "receiving"
	case ReasonIdle:
		return "idle"
	default:
		return "none"
	}
}

// Status is the observable channel state for one SerialLink. It is mutated
// only by the receiver loop via Update/SetFree/SetSending/SetReceiving/SetIdle
// and read by senders
// via Free/WaitForFree; the mutex makes that cross-goroutine access safe.
type Status struct {
	mu sync.Mutex

	busy           bool
	reason         Reason
	timeBecameBusy time.Time
	timeLastHeard  time.Time

	// FreeThreshold is how long the channel must have been reported not-busy
	// before Free() treats it as admissible for sending. Default 4s.
	FreeThreshold time.Duration
	// ForceThreshold is how long the channel may go without any device-state
	// event before Free() force-declares it free, to avoid deadlocking on a
	// radio that stopped emitting LED updates. Default 10s.
	ForceThreshold time.Duration

	// PollInterval is how often WaitForFree re-checks Free(). Must be at
	// least 10Hz per the contract; default 50ms.
	PollInterval time.Duration
}

// NewStatus returns a Status with the documented defaults. The channel
// starts in the free state, as if a free LED event had just been observed.
func NewStatus() *Status {
	now := time.Now()
	return &Status{
		busy:           false,
		reason:         ReasonNone,
		timeBecameBusy: now,
		timeLastHeard:  now,
		FreeThreshold:  4 * time.Second,
		ForceThreshold: 10 * time.Second,
		PollInterval:   50 * time.Millisecond,
	}
}

// Update bumps time_last_heard without changing the busy/free state. Called
// for every device-state frame, including ones that don't change the LED.
func (s *Status) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeLastHeard = time.Now()
}

// SetFree records an explicit off-LED (channel free) event.
func (s *Status) SetFree() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.timeLastHeard = now
	if s.busy {
		s.busy = false
		s.timeBecameBusy = now
	}
	s.reason = ReasonNone
	log.Debugf("[CHANNEL] free")
}

// setBusy is the shared implementation behind SetSending/SetReceiving/SetIdle.
func (s *Status) setBusy(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.timeLastHeard = now
	if !s.busy || s.reason != reason {
		s.timeBecameBusy = now
	}
	s.busy = true
	s.reason = reason
	log.Debugf("[CHANNEL] busy (%s)", reason)
}

// SetSending records a red-LED (local unit transmitting) event.
func (s *Status) SetSending() { s.setBusy(ReasonSending) }

// SetReceiving records a green-LED (channel occupied by another unit) event.
func (s *Status) SetReceiving() { s.setBusy(ReasonReceiving) }

// SetIdle records an orange-LED (channel reserved but idle) event.
func (s *Status) SetIdle() { s.setBusy(ReasonIdle) }

// Free reports whether the channel is currently admissible for sending:
// the busy flag is clear and it has been clear for at least FreeThreshold,
// or no device-state event has arrived for at least ForceThreshold.
func (s *Status) Free() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if !s.busy && now.Sub(s.timeBecameBusy) >= s.FreeThreshold {
		return true
	}
	if now.Sub(s.timeLastHeard) >= s.ForceThreshold {
		return true
	}
	return false
}

// Reason reports the current busy reason (meaningless when Free() is true).
func (s *Status) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// WaitForFree blocks, polling at PollInterval, until Free() holds or ctx is
// done. It returns ctx.Err() on cancellation/timeout.
func (s *Status) WaitForFree(ctx context.Context) error {
	if s.Free() {
		return nil
	}
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Free() {
				return nil
			}
		}
	}
}
