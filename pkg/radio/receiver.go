package radio

import (
	"context"

	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/channel"
)

// FrameSource is the minimal read side a Receiver needs from a serial link.
type FrameSource interface {
	ReadFrame() ([]byte, error)
}

// Receiver is the single long-running task that consumes framed records off
// the wire, classifies them, updates ChannelStatus, enqueues SDM/LDM
// payloads and status records, and resolves the currently-pending
// confirmation future. There must be exactly one Receiver per link; it owns
// no reference back to a Sender, only the shared ChannelStatus and
// inFlightSlot, per the no-cyclic-ownership design note.
type Receiver struct {
	source   FrameSource
	channel  *channel.Status
	inFlight *inFlightSlot

	Data   chan nxdnradio.InboundData
	Status chan nxdnradio.InboundStatus
}

func newReceiver(source FrameSource, ch *channel.Status, inFlight *inFlightSlot) *Receiver {
	return &Receiver{
		source:   source,
		channel:  ch,
		inFlight: inFlight,
		Data:     make(chan nxdnradio.InboundData, 64),
		Status:   make(chan nxdnradio.InboundStatus, 64),
	}
}

// Run drives the receive loop until ctx is cancelled or the link reports a
// fatal error (ErrDeviceNotFound), in which case Run returns that error.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		body, err := r.source.ReadFrame()
		if err != nil {
			log.Warnf("[RECEIVER] link terminated: %v", err)
			return err
		}
		r.dispatch(body)
	}
}

func (r *Receiver) dispatch(body []byte) {
	switch classify(body) {
	case nxdnradio.OpShortMessage, nxdnradio.OpLongMessage:
		r.channel.Update()
		data, err := nxdnradio.ParseInboundData(body)
		if err != nil {
			log.Debugf("[RECEIVER] dropping malformed data frame: %v", err)
			return
		}
		select {
		case r.Data <- data:
		default:
			log.Warnf("[RECEIVER] inbound data queue full, dropping frame from %s", data.Peer)
		}
	case nxdnradio.OpStatusMessage:
		r.channel.Update()
		status, err := nxdnradio.ParseInboundStatus(body)
		if err != nil {
			log.Debugf("[RECEIVER] dropping malformed status frame: %v", err)
			return
		}
		select {
		case r.Status <- status:
		default:
			log.Warnf("[RECEIVER] inbound status queue full, dropping frame from %s", status.Peer)
		}
	case nxdnradio.OpDeviceState:
		r.channel.Update()
		led, err := nxdnradio.DeviceStateLED(body)
		if err != nil {
			log.Debugf("[RECEIVER] dropping malformed device-state frame: %v", err)
			return
		}
		switch led {
		case nxdnradio.LedFree:
			r.channel.SetFree()
		case nxdnradio.LedSending:
			r.channel.SetSending()
		case nxdnradio.LedReceiving:
			r.channel.SetReceiving()
		case nxdnradio.LedIdle:
			r.channel.SetIdle()
		default:
			log.Debugf("[RECEIVER] unrecognized LED byte 0x%x", led)
		}
	case nxdnradio.OpDisplayContent:
		// Display content is ignored per the wire vocabulary.
	case nxdnradio.OpConfirmSuccess:
		if !r.inFlight.resolveCurrent(result{success: true}) {
			log.Debugf("[RECEIVER] success confirmation with no pending command, discarding")
		}
	case nxdnradio.OpConfirmFailure:
		if !r.inFlight.resolveCurrent(result{success: false}) {
			log.Debugf("[RECEIVER] failure confirmation with no pending command, discarding")
		}
	default:
		log.Debugf("[RECEIVER] unrecognized frame, discarding")
	}
}

// classify is a thin package-local indirection over the exported
// nxdnradio.Classify.
func classify(body []byte) nxdnradio.Opcode {
	return nxdnradio.Classify(body)
}
