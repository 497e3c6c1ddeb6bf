package nxdnradio

import "fmt"

// peerOffset and dataOffset locate the sender UnitID and opaque payload
// inside a gF*/gG* frame body. The gap between the two (bytes 8..14) is
// protocol padding the driver does not interpret.
const (
	peerOffsetStart = 3
	peerOffsetEnd   = 8
	dataOffset      = 14
)

// InboundData is a (peer, payload) pair extracted from an SDM or LDM frame.
type InboundData struct {
	Peer UnitID
	Data []byte
}

// InboundStatus is a (peer, status) pair extracted from a status-set frame.
type InboundStatus struct {
	Peer   UnitID
	Status []byte
}

// ParseInboundData extracts the peer UnitID and payload from an SDM/LDM
// frame body (already stripped of START/STOP).
func ParseInboundData(body []byte) (InboundData, error) {
	if len(body) < dataOffset {
		return InboundData{}, fmt.Errorf("%w: short data frame (%d bytes)", ErrIllegalArgument, len(body))
	}
	var peer UnitID
	copy(peer[:], body[peerOffsetStart:peerOffsetEnd])
	return InboundData{Peer: peer, Data: body[dataOffset:]}, nil
}

// ParseInboundStatus extracts the peer UnitID and status bytes from a
// status-set frame body (already stripped of START/STOP).
func ParseInboundStatus(body []byte) (InboundStatus, error) {
	if len(body) < dataOffset {
		return InboundStatus{}, fmt.Errorf("%w: short status frame (%d bytes)", ErrIllegalArgument, len(body))
	}
	var peer UnitID
	copy(peer[:], body[peerOffsetStart:peerOffsetEnd])
	return InboundStatus{Peer: peer, Status: body[dataOffset:]}, nil
}

// DeviceStateLED extracts the trailing LED byte from a JA frame body.
func DeviceStateLED(body []byte) (byte, error) {
	if len(body) == 0 {
		return 0, fmt.Errorf("%w: empty device-state frame", ErrIllegalArgument)
	}
	return body[len(body)-1], nil
}
