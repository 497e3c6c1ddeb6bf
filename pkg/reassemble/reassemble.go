// Package reassemble stitches the json…json chunk envelope the sender
// splits a pickled payload into back into the original encoded blob.
package reassemble

import (
	"bytes"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// marker is the literal ASCII token bracketing the first and last chunk of
// a multi-LDM payload.
var marker = []byte("json")

// Reassembler buffers in-flight chunk streams, one per peer. It has no
// notion of transport; callers feed it (peer, chunk) pairs as the Receiver
// classifies them and get back complete encoded blobs.
type Reassembler struct {
	mu      sync.Mutex
	buffers map[string]*buffer

	// ReceiveTimeout bounds how long a buffer may sit open between chunks
	// before it is considered abandoned. Default 60s.
	ReceiveTimeout time.Duration

	// Events, if set, receives a TimeoutEvent whenever Feed or the Watch
	// sweep drops a buffer for exceeding ReceiveTimeout. Sends are
	// non-blocking: a full or nil Events never slows eviction down.
	Events chan<- TimeoutEvent
}

type buffer struct {
	data     bytes.Buffer
	started  bool
	deadline time.Time
}

// New returns a Reassembler with the documented default timeout.
func New() *Reassembler {
	return &Reassembler{
		buffers:        make(map[string]*buffer),
		ReceiveTimeout: 60 * time.Second,
	}
}

// Feed processes one chunk received from peer. If the chunk completes a
// message, Feed returns the full encoded blob and ok=true. Otherwise it
// returns ok=false, having buffered the chunk.
//
// A fresh start marker arriving while a transmission is already open for
// peer resets that peer's buffer, per the reassembler's reset contract.
func (r *Reassembler) Feed(peer string, chunk []byte) (encoded []byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.buffers[peer]
	now := time.Now()

	if b != nil && b.started && !b.deadline.IsZero() && now.After(b.deadline) {
		log.Warnf("[REASSEMBLE] peer %s exceeded receive timeout, resetting", peer)
		delete(r.buffers, peer)
		b = nil
		r.emit(TimeoutEvent{Peer: peer})
	}

	isStart := bytes.HasPrefix(chunk, marker)
	if isStart {
		if b != nil && b.started {
			log.Debugf("[REASSEMBLE] peer %s: fresh start marker while open, resetting", peer)
		}
		b = &buffer{started: true}
		r.buffers[peer] = b
		chunk = chunk[len(marker):]
	}

	if b == nil || !b.started {
		log.Debugf("[REASSEMBLE] peer %s: chunk received with no open transmission, dropping", peer)
		return nil, false
	}

	isEnd := bytes.HasSuffix(chunk, marker)
	if isEnd {
		chunk = chunk[:len(chunk)-len(marker)]
	}

	b.data.Write(chunk)
	b.deadline = now.Add(r.ReceiveTimeout)

	if !isEnd {
		return nil, false
	}

	delete(r.buffers, peer)
	return b.data.Bytes(), true
}

// Reset discards any in-flight buffer for peer.
func (r *Reassembler) Reset(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, peer)
}

// Pending reports whether a transmission is currently open for peer.
func (r *Reassembler) Pending(peer string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[peer]
	return ok && b.started
}

// TimeoutEvent reports that a peer's in-flight buffer was dropped because
// no continuation chunk arrived within ReceiveTimeout.
type TimeoutEvent struct {
	Peer string
}

// Watch runs a background sweep, at the given interval, that evicts buffers
// past their deadline and emits a TimeoutEvent for each on Events. It
// blocks until ctx is done. Callers that never need proactive eviction (only
// Feed's lazy check) don't need to run Watch at all.
func (r *Reassembler) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reassembler) sweep() {
	r.mu.Lock()
	now := time.Now()
	var expired []string
	for peer, b := range r.buffers {
		if b.started && !b.deadline.IsZero() && now.After(b.deadline) {
			expired = append(expired, peer)
			delete(r.buffers, peer)
		}
	}
	r.mu.Unlock()

	for _, peer := range expired {
		log.Warnf("[REASSEMBLE] peer %s receive timeout, buffer dropped", peer)
		r.emit(TimeoutEvent{Peer: peer})
	}
}

// emit is a non-blocking send on Events; it's a no-op if Events is nil or
// full.
func (r *Reassembler) emit(ev TimeoutEvent) {
	if r.Events == nil {
		return
	}
	select {
	case r.Events <- ev:
	default:
	}
}
