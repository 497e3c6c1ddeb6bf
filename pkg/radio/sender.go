// Package radio implements the send state machine and receive dispatcher
// that sit directly on top of a serial link: channel-acquisition,
// confirmation/retry, and single-in-flight-command enforcement.
package radio

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/channel"
)

// FrameWriter is the minimal write side a Sender needs from a serial link.
type FrameWriter interface {
	Write(frame []byte) error
}

// Config holds the tunables named in the external-interfaces table.
type Config struct {
	ConfirmationTimeout time.Duration // default 60s
	ChannelTimeout      time.Duration // default 60s
	PreSendDelay        time.Duration // default ~5s, load-bearing hardware settle time
	EnableWake          bool          // gate the start-call/end-call wake sequence
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ConfirmationTimeout: 60 * time.Second,
		ChannelTimeout:      60 * time.Second,
		PreSendDelay:        5 * time.Second,
		EnableWake:          false,
	}
}

// Sender drives the send state machine on top of a Link: it serializes
// writes through a single per-link lock, waits for the channel to be free
// before emitting a command, and waits for the radio's confirmation byte
// (or a timeout) before returning.
type Sender struct {
	writer   FrameWriter
	channel  *channel.Status
	inFlight *inFlightSlot
	cfg      Config

	sendMu sync.Mutex
}

func newSender(writer FrameWriter, ch *channel.Status, inFlight *inFlightSlot, cfg Config) *Sender {
	return &Sender{writer: writer, channel: ch, inFlight: inFlight, cfg: cfg}
}

// Write is the low-level primitive: install a fresh InFlightCommand,
// transmit cmd, and if awaitResponse, wait for its resolution or
// ConfirmationTimeout. It always clears the pending resolver on exit.
func (s *Sender) Write(ctx context.Context, cmd nxdnradio.Command, awaitResponse bool) (bool, error) {
	handle := s.inFlight.install()
	defer s.inFlight.clear(handle)

	log.Debugf("[SENDER][TX] %s", cmd.Name)
	if err := s.writer.Write(cmd.Bytes()); err != nil {
		return false, err
	}

	if !awaitResponse {
		return false, nil
	}

	timer := time.NewTimer(s.cfg.ConfirmationTimeout)
	defer timer.Stop()

	select {
	case r := <-handle.done:
		log.Debugf("[SENDER][RX] %s confirmed success=%v", cmd.Name, r.success)
		return r.success, nil
	case <-timer.C:
		return false, fmt.Errorf("%w: %s", nxdnradio.ErrConfirmationTimeout, cmd.Name)
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Send is the channel-aware send contract: pre-send settle sleep, serialize
// through the send lock, wake/wait for a free channel, then Write.
func (s *Sender) Send(ctx context.Context, cmd nxdnradio.Command) (bool, error) {
	select {
	case <-time.After(s.cfg.PreSendDelay):
	case <-ctx.Done():
		return false, ctx.Err()
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if !s.channel.Free() {
		if err := s.wake(ctx); err != nil {
			return false, err
		}
		waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ChannelTimeout)
		err := s.channel.WaitForFree(waitCtx)
		cancel()
		if err != nil {
			return false, fmt.Errorf("%w: %v", nxdnradio.ErrChannelTimeout, err)
		}
	}

	return s.Write(ctx, cmd, true)
}

// wake nudges a stuck channel with a start-call/end-call pair, gated by
// Config.EnableWake since the sequence is empirical (design note (c)).
func (s *Sender) wake(ctx context.Context) error {
	if !s.cfg.EnableWake {
		return nil
	}
	if _, err := s.Write(ctx, nxdnradio.StartVoiceCall(), true); err != nil {
		return err
	}
	if _, err := s.Write(ctx, nxdnradio.EndVoiceCall(), true); err != nil {
		return err
	}
	return nil
}

// SendLDM rejects oversized payloads, builds a long-message command, and
// forwards it through Send.
func (s *Sender) SendLDM(ctx context.Context, target nxdnradio.UnitID, payload []byte) (bool, error) {
	if len(payload) > nxdnradio.MaxSize {
		return false, fmt.Errorf("%w: %d bytes", nxdnradio.ErrPayloadTooLarge, len(payload))
	}
	return s.Send(ctx, nxdnradio.LongMessage2Unit(target, payload))
}

// SendSDM sends a single, unchunked short message — the symmetric
// single-frame counterpart to SendLDM used for control/status traffic that
// doesn't need reassembly.
func (s *Sender) SendSDM(ctx context.Context, target nxdnradio.UnitID, payload []byte) (bool, error) {
	if len(payload) > nxdnradio.MaxSize {
		return false, fmt.Errorf("%w: %d bytes", nxdnradio.ErrPayloadTooLarge, len(payload))
	}
	return s.Send(ctx, nxdnradio.ShortMessage2Unit(target, payload))
}

// SendStatus sets a unit's status via the same send state machine.
func (s *Sender) SendStatus(ctx context.Context, target nxdnradio.UnitID, status []byte) (bool, error) {
	return s.Send(ctx, nxdnradio.SetUnitStatus(target, status))
}

// Wake exposes the wake sequence directly for callers (e.g. a health-check
// command) who want to nudge the channel without sending a payload.
func (s *Sender) Wake(ctx context.Context) error {
	return s.wake(ctx)
}
