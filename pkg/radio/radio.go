package radio

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/channel"
)

// Link is what Radio needs from the serial layer: both a FrameSource for
// the Receiver and a FrameWriter for the Sender. pkg/serialio.Link
// satisfies this.
type Link interface {
	FrameSource
	FrameWriter
}

// Radio ties a serial Link, its ChannelStatus, a Receiver, and a Sender
// together. It owns no back-reference between Receiver and Sender; they
// share only the ChannelStatus (held here as Channel) and an inFlightSlot
// that New creates and hands to both.
type Radio struct {
	Channel  *channel.Status
	Receiver *Receiver
	Sender   *Sender
}

// New builds a Radio wired over link using cfg. Callers must run
// Receiver.Run in its own goroutine; Radio does not start it automatically
// so the caller controls its context/lifecycle.
func New(link Link, cfg Config) *Radio {
	ch := channel.NewStatus()
	inFlight := &inFlightSlot{}
	return &Radio{
		Channel:  ch,
		Receiver: newReceiver(link, ch, inFlight),
		Sender:   newSender(link, ch, inFlight, cfg),
	}
}

// SendEncoded chunks an already-pickled blob per the chunking contract and
// sends every chunk, in order, as its own LDM command. If any chunk's send
// fails or errors, the whole payload send fails and no further chunks are
// sent.
func (r *Radio) SendEncoded(ctx context.Context, target nxdnradio.UnitID, encoded []byte) (bool, error) {
	chunks := splitChunks(encoded)
	log.Debugf("[RADIO] sending %d byte payload to %s as %d chunk(s)", len(encoded), target, len(chunks))
	for i, chunk := range chunks {
		ok, err := r.Sender.SendLDM(ctx, target, chunk)
		if err != nil {
			return false, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// SendStatus forwards to the underlying Sender's status-set command,
// satisfying communicator.StatusSender (spec.md §4.1's setUnitStatus
// command, wired end-to-end per SPEC_FULL.md §4.10).
func (r *Radio) SendStatus(ctx context.Context, target nxdnradio.UnitID, status []byte) (bool, error) {
	return r.Sender.SendStatus(ctx, target, status)
}
