// Package communicator provides the application-facing datagram transport:
// it pickles/unpickles payloads, routes decoded messages to per-peer or
// per-topic queues, enforces the size guard, and serializes its outbound
// traffic under a per-Communicator communication lock. Separate Communicator
// instances do not share that lock.
package communicator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/pickle"
	"github.com/evocount/nxdnradio/pkg/reassemble"
)

// Sender is what Communicator needs from the radio layer to push an
// already-chunked payload out.
type Sender interface {
	SendEncoded(ctx context.Context, target nxdnradio.UnitID, encoded []byte) (bool, error)
}

// Config holds the communicator-level tunables from the external
// interfaces table.
type Config struct {
	RetrySending   bool // outer retry policy, default disabled (design note (b))
	MaxRetries     int  // default 2
	RetryMinDelay  time.Duration
	RetryMaxDelay  time.Duration
	Compression    bool
	Listeners      []string // pre-declared topic names
	ReceiveTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		RetrySending:   false,
		MaxRetries:     2,
		RetryMinDelay:  2 * time.Second,
		RetryMaxDelay:  10 * time.Second,
		Compression:    true,
		ReceiveTimeout: 60 * time.Second,
	}
}

// DecodedMessage is a fully routed, decoded inbound message.
type DecodedMessage struct {
	Peer nxdnradio.UnitID
	pickle.Envelope
}

// Communicator is the per-instance datagram endpoint: it owns a codec, a
// reassembler, the outbound counter, and the target/topic queues. Each
// instance logs under its own id (mirroring the Python original's
// repr(self)-tagged log lines).
type Communicator struct {
	id      string
	sender  Sender
	codec   *pickle.Codec
	reasm   *reassemble.Reassembler
	cfg     Config

	counterMu sync.Mutex
	counter   int

	commMu sync.Mutex // one outstanding send per Communicator; not shared between instances

	targetMu sync.Mutex
	targets  map[string]*unboundedQueue

	topics map[string]*unboundedQueue

	statusSource <-chan nxdnradio.InboundStatus

	timeoutEvents chan reassemble.TimeoutEvent
	errs          chan error
}

// New builds a Communicator over sender, pre-registering a queue for every
// name in cfg.Listeners.
func New(sender Sender, cfg Config) *Communicator {
	timeoutEvents := make(chan reassemble.TimeoutEvent, 64)

	reasm := reassemble.New()
	reasm.ReceiveTimeout = cfg.ReceiveTimeout
	reasm.Events = timeoutEvents

	c := &Communicator{
		id:            uuid.NewString(),
		sender:        sender,
		codec:         pickle.NewCodec(cfg.Compression),
		reasm:         reasm,
		cfg:           cfg,
		targets:       make(map[string]*unboundedQueue),
		topics:        make(map[string]*unboundedQueue),
		timeoutEvents: timeoutEvents,
		errs:          make(chan error, 64),
	}
	for _, topic := range cfg.Listeners {
		c.topics[topic] = newUnboundedQueue()
	}
	log.Infof("[COMM][%s] initialized", c.id)
	return c
}

// Errors returns the stream of asynchronous, non-fatal errors observed
// outside of a direct call's return path — currently just ErrReceiveTimeout,
// emitted when the reassembler gives up on a peer's in-flight chunks. Start
// must be running for anything to arrive here.
func (c *Communicator) Errors() <-chan error {
	return c.errs
}

// StatusSender is the radio-layer capability needed to set a unit's status
// directly (spec.md §4.1's setUnitStatus/setGroupStatus commands), bypassing
// the pickle/chunk path used by Send. *radio.Radio satisfies this alongside
// Sender.
type StatusSender interface {
	SendStatus(ctx context.Context, target nxdnradio.UnitID, status []byte) (bool, error)
}

// SendStatus sets target's status via the same send state machine Send
// uses, under the same communication lock. It returns ErrIllegalArgument if
// the Communicator was built over a Sender that doesn't also implement
// StatusSender.
func (c *Communicator) SendStatus(ctx context.Context, target nxdnradio.UnitID, status []byte) (bool, error) {
	ss, ok := c.sender.(StatusSender)
	if !ok {
		return false, fmt.Errorf("%w: sender does not support status messages", nxdnradio.ErrIllegalArgument)
	}
	c.commMu.Lock()
	defer c.commMu.Unlock()
	return ss.SendStatus(ctx, target, status)
}

// WithStatusSource wires src (typically a *radio.Radio's Receiver.Status
// channel) as the source StatusQueue reads from. Not required for Send/
// SendStatus; only for callers that want inbound status records routed
// alongside the target/topic queues.
func (c *Communicator) WithStatusSource(src <-chan nxdnradio.InboundStatus) *Communicator {
	c.statusSource = src
	return c
}

// StatusQueue returns the inbound status-record stream wired by
// WithStatusSource, or nil if none was wired.
func (c *Communicator) StatusQueue() <-chan nxdnradio.InboundStatus {
	return c.statusSource
}

// Send pickles data with meta into an Envelope, applies the size guard, and
// pushes it through the radio under the communication lock. A
// ConfirmationTimeout from the radio layer is treated as a false result,
// not an error, matching the receive-dispatch contract; the optional retry
// policy, if enabled, sleeps a random jittered backoff and retries before
// giving up with ErrSendMaxRetries.
func (c *Communicator) Send(ctx context.Context, target nxdnradio.UnitID, data any, meta map[string]any) (bool, error) {
	c.counterMu.Lock()
	c.counter++
	counter := c.counter
	c.counterMu.Unlock()

	encoded, err := c.codec.PickleEnvelope(counter, meta, data)
	if err != nil {
		return false, fmt.Errorf("pickle: %w", err)
	}
	if len(encoded) > nxdnradio.MaxSize {
		return false, fmt.Errorf("%w: %d bytes", nxdnradio.ErrPayloadTooLarge, len(encoded))
	}

	attempts := 1
	if c.cfg.RetrySending {
		attempts += c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryMinDelay + time.Duration(rand.Int63n(int64(c.cfg.RetryMaxDelay-c.cfg.RetryMinDelay+1)))
			log.Debugf("[COMM][%s] retry %d/%d after %s", c.id, attempt, c.cfg.MaxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		ok, err := c.sendOnce(ctx, target, encoded)
		if err == nil && ok {
			return true, nil
		}
		lastErr = err
		if err != nil && !isConfirmationTimeout(err) {
			return false, err
		}
	}

	if c.cfg.RetrySending {
		return false, fmt.Errorf("%w: %v", nxdnradio.ErrSendMaxRetries, lastErr)
	}
	return false, nil
}

func (c *Communicator) sendOnce(ctx context.Context, target nxdnradio.UnitID, encoded []byte) (bool, error) {
	c.commMu.Lock()
	defer c.commMu.Unlock()
	ok, err := c.sender.SendEncoded(ctx, target, encoded)
	if err != nil && isConfirmationTimeout(err) {
		return false, nil
	}
	return ok, err
}

func isConfirmationTimeout(err error) bool {
	return err != nil && errors.Is(err, nxdnradio.ErrConfirmationTimeout)
}
