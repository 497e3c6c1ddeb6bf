package nxdnradio

import (
	"fmt"
)

// Opcode identifies the meaning of an inbound frame body, classified from
// its leading bytes by the Receiver.
type Opcode int

const (
	OpUnknown Opcode = iota
	OpShortMessage     // gF*
	OpLongMessage      // gG*
	OpStatusMessage    // gE*
	OpDeviceState      // JA
	OpDisplayContent   // JE (ignored)
	OpConfirmSuccess   // bare '0'
	OpConfirmFailure   // bare '1'
)

// baudrateDigits maps a supported line rate to the digit PCIP expects in a
// set-baudrate command body.
var baudrateDigits = map[int]byte{
	1200:  '2',
	2400:  '3',
	4800:  '4',
	9600:  '5',
	19200: '6',
	38400: '7',
	57600: '8',
}

// Command is a fully-formed PCIP command body, ready to be framed and
// written to the serial link.
type Command struct {
	Name string // human-readable, for logging only
	Body []byte
}

// Bytes returns the START/STOP-framed wire representation of cmd.
func (cmd Command) Bytes() []byte {
	return Frame(cmd.Body)
}

// StartVoiceCall requests the radio key up on the current channel.
func StartVoiceCall() Command {
	return Command{Name: "start-call", Body: []byte{'A'}}
}

// EndVoiceCall requests the radio release the channel.
func EndVoiceCall() Command {
	return Command{Name: "end-call", Body: []byte{'C'}}
}

// SetBaudrate builds a set-baudrate command for one of the supported rates.
func SetBaudrate(baud int) (Command, error) {
	digit, ok := baudrateDigits[baud]
	if !ok {
		return Command{}, fmt.Errorf("%w: unsupported baudrate %d", ErrIllegalBaudrate, baud)
	}
	return Command{Name: "set-baudrate", Body: []byte{'O', digit}}, nil
}

// SetAutoRepeat toggles the radio's own auto-repeat behavior.
func SetAutoRepeat(enabled bool) Command {
	flag := byte('0')
	if enabled {
		flag = '1'
	}
	return Command{Name: "set-repeat", Body: []byte{'k', 'R', flag}}
}

// ChannelStatusRequest asks the radio to report its current channel state.
func ChannelStatusRequest() Command {
	return Command{Name: "channel-status", Body: []byte("JCA")}
}

// ShortMessage2Unit builds an SDM addressed to a single unit.
func ShortMessage2Unit(target UnitID, body []byte) Command {
	return buildAddressed("gFU", "short-message-unit", target, body)
}

// ShortMessage2Group builds an SDM addressed to a talk group.
func ShortMessage2Group(target UnitID, body []byte) Command {
	return buildAddressed("gFG", "short-message-group", target, body)
}

// LongMessage2Unit builds an LDM addressed to a single unit.
func LongMessage2Unit(target UnitID, body []byte) Command {
	return buildAddressed("gGU", "long-message-unit", target, body)
}

// LongMessage2Group builds an LDM addressed to a talk group.
func LongMessage2Group(target UnitID, body []byte) Command {
	return buildAddressed("gGG", "long-message-group", target, body)
}

// SetUnitStatus builds a status-set command addressed to a single unit.
func SetUnitStatus(target UnitID, status []byte) Command {
	return buildAddressed("gEU", "set-unit-status", target, status)
}

// SetGroupStatus builds a status-set command addressed to a talk group.
func SetGroupStatus(target UnitID, status []byte) Command {
	return buildAddressed("gEG", "set-group-status", target, status)
}

func buildAddressed(prefix, name string, target UnitID, payload []byte) Command {
	body := make([]byte, 0, len(prefix)+5+len(payload))
	body = append(body, prefix...)
	body = append(body, target[:]...)
	body = append(body, payload...)
	return Command{Name: name, Body: body}
}

// Classify inspects a frame body (already stripped of START/STOP) and
// reports its Opcode.
func Classify(body []byte) Opcode {
	switch {
	case len(body) == 1 && body[0] == ConfirmSuccess:
		return OpConfirmSuccess
	case len(body) == 1 && body[0] == ConfirmFailure:
		return OpConfirmFailure
	case len(body) >= 2 && body[0] == 'J' && body[1] == 'A':
		return OpDeviceState
	case len(body) >= 2 && body[0] == 'J' && body[1] == 'E':
		return OpDisplayContent
	case len(body) >= 1 && body[0] == 'g':
		if len(body) < 2 {
			return OpUnknown
		}
		switch body[1] {
		case 'F':
			return OpShortMessage
		case 'G':
			return OpLongMessage
		case 'E':
			return OpStatusMessage
		}
	}
	return OpUnknown
}
