package communicator

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	nxdnradio "github.com/evocount/nxdnradio"
)

// Inbound is the radio-layer source of (peer, chunk) records the dispatch
// loop consumes. pkg/radio.Receiver.Data satisfies this as a
// <-chan nxdnradio.InboundData.
type Inbound <-chan nxdnradio.InboundData

// Run drains inbound, feeding each chunk through the reassembler and
// routing every completed message to its target or topic queue. It blocks
// until ctx is done or inbound is closed.
func (c *Communicator) Run(ctx context.Context, inbound Inbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-inbound:
			if !ok {
				return
			}
			c.handleChunk(rec)
		}
	}
}

// sweepInterval is how often Start's background watchdog checks for
// abandoned chunk buffers. A quarter of the default ReceiveTimeout keeps
// eviction reasonably prompt without busy-polling.
const sweepInterval = 15 * time.Second

// Start runs the dispatch loop, the reassembler's stale-buffer watchdog, and
// the receive-timeout relay side by side, under a single errgroup, so one
// goroutine leak or panic doesn't leave the others running unsupervised. It
// blocks until ctx is done.
func (c *Communicator) Start(ctx context.Context, inbound Inbound) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Run(ctx, inbound)
		return ctx.Err()
	})
	g.Go(func() error {
		c.reasm.Watch(ctx, sweepInterval)
		return ctx.Err()
	})
	g.Go(func() error {
		c.relayTimeouts(ctx)
		return ctx.Err()
	})
	return g.Wait()
}

// relayTimeouts drains the reassembler's TimeoutEvent stream and republishes
// each as an ErrReceiveTimeout on Errors(), the way spec.md §7 lists
// ReceiveTimeout among the error taxonomy surfaced to callers.
func (c *Communicator) relayTimeouts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.timeoutEvents:
			if !ok {
				return
			}
			err := fmt.Errorf("%w: peer %s", nxdnradio.ErrReceiveTimeout, ev.Peer)
			select {
			case c.errs <- err:
			default:
				log.Warnf("[COMM][%s] error queue full, dropping %v", c.id, err)
			}
		}
	}
}

func (c *Communicator) handleChunk(rec nxdnradio.InboundData) {
	encoded, complete := c.reasm.Feed(rec.Peer.String(), rec.Data)
	if !complete {
		return
	}

	env, err := c.codec.UnpickleEnvelope(encoded)
	if err != nil {
		log.Warnf("[COMM][%s] failed to unpickle message from %s: %v", c.id, rec.Peer, err)
		return
	}

	msg := DecodedMessage{Peer: rec.Peer, Envelope: env}

	if trigger := env.Trigger(); trigger != "" {
		topic, ok := c.topics[trigger]
		if !ok {
			log.Warnf("[COMM][%s] message for unknown topic %q from %s dropped", c.id, trigger, rec.Peer)
			return
		}
		topic.Push(msg)
		return
	}

	c.targetQueue(rec.Peer).Push(msg)
}

// targetQueue returns the (lazily-created) inbound queue for peer.
func (c *Communicator) targetQueue(peer nxdnradio.UnitID) *unboundedQueue {
	key := peer.String()
	c.targetMu.Lock()
	defer c.targetMu.Unlock()
	q, ok := c.targets[key]
	if !ok {
		q = newUnboundedQueue()
		c.targets[key] = q
	}
	return q
}

// GetTargetQueue returns the inbound queue for peer, creating it on first
// use. The returned channel is unbounded upstream (see unboundedQueue):
// nothing is ever dropped for a slow consumer.
func (c *Communicator) GetTargetQueue(peer nxdnradio.UnitID) <-chan DecodedMessage {
	return c.targetQueue(peer).Out()
}

// GetListenerQueue returns the inbound queue for a pre-registered topic. It
// returns ErrListenerNotDefined if topic wasn't declared in Config.Listeners
// at construction.
func (c *Communicator) GetListenerQueue(topic string) (<-chan DecodedMessage, error) {
	q, ok := c.topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", nxdnradio.ErrListenerNotDefined, topic)
	}
	return q.Out(), nil
}
