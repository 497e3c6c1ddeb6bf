// Package serialio owns the byte-level serial connection to the radio: it
// opens the port with the line parameters PCIP requires, and exposes
// framed-write and framed-read primitives built on top of raw I/O.
package serialio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	nxdnradio "github.com/evocount/nxdnradio"
)

// Opener abstracts the physical transport so tests can substitute an
// in-memory io.ReadWriteCloser instead of a real serial port.
type Opener func(path string, baud uint) (io.ReadWriteCloser, error)

// OpenPort opens a real serial port with the fixed PCIP parameters: 8 data
// bits, 2 stop bits, no parity.
func OpenPort(path string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              path,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              2,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 100,
		MinimumReadSize:       0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nxdnradio.ErrDeviceNotFound, err)
	}
	return port, nil
}

// Link owns the physical connection and provides the frame-level
// read/write primitives the rest of the driver uses. Its mutex guards the
// port handle and the destroyed flag only; it is not held while bytes are
// written, so callers serialize writes with their own send lock.
type Link struct {
	mu        sync.Mutex
	port      io.ReadWriteCloser
	path      string
	baud      uint
	opener    Opener
	destroyed bool

	readBuf bytes.Buffer
	pending [][]byte
	raw     []byte
}

// New opens path at baud using opener (OpenPort for real hardware) and
// returns a ready Link.
func New(path string, baud uint, opener Opener) (*Link, error) {
	if opener == nil {
		opener = OpenPort
	}
	port, err := opener(path, baud)
	if err != nil {
		return nil, err
	}
	return &Link{
		port:   port,
		path:   path,
		baud:   baud,
		opener: opener,
		raw:    make([]byte, 4096),
	}, nil
}

// Write emits a single already-framed command. Callers serialize writes
// through their own send lock; Link does not reorder or batch.
func (l *Link) Write(frame []byte) error {
	l.mu.Lock()
	destroyed := l.destroyed
	port := l.port
	l.mu.Unlock()
	if destroyed {
		return nxdnradio.ErrDeviceNotFound
	}
	if _, err := port.Write(frame); err != nil {
		l.destroy()
		return fmt.Errorf("%w: %v", nxdnradio.ErrDeviceNotFound, err)
	}
	return nil
}

// ReadFrame blocks until one complete START…STOP frame has arrived and
// returns its body (STOP and START stripped). It is intended to be called
// in a tight loop from a single reader goroutine; bytes belonging to a
// subsequent frame that arrive in the same underlying Read are retained for
// the next call.
func (l *Link) ReadFrame() ([]byte, error) {
	for {
		if len(l.pending) > 0 {
			frame := l.pending[0]
			l.pending = l.pending[1:]
			return frame, nil
		}

		if frames, consumed := nxdnradio.SplitFrames(l.readBuf.Bytes()); len(frames) > 0 {
			// frames alias readBuf's storage, which the Reset/Write below reuses.
			l.pending = make([][]byte, len(frames))
			for i, f := range frames {
				l.pending[i] = append([]byte(nil), f...)
			}
			remaining := l.readBuf.Bytes()[consumed:]
			next := make([]byte, len(remaining))
			copy(next, remaining)
			l.readBuf.Reset()
			l.readBuf.Write(next)
			continue
		}

		l.mu.Lock()
		destroyed := l.destroyed
		port := l.port
		l.mu.Unlock()
		if destroyed {
			return nil, nxdnradio.ErrDeviceNotFound
		}

		n, err := port.Read(l.raw)
		if n > 0 {
			l.readBuf.Write(l.raw[:n])
		}
		if err != nil {
			l.destroy()
			return nil, fmt.Errorf("%w: %v", nxdnradio.ErrDeviceNotFound, err)
		}
	}
}

// UpgradeBaudrate writes cmd (a set-baudrate PCIP command built by the
// caller) and then reopens the local side of the connection at newBaud.
// Called only when the change_baudrate config option is enabled.
func (l *Link) UpgradeBaudrate(cmd []byte, newBaud uint) error {
	if err := l.Write(cmd); err != nil {
		return err
	}
	// The radio needs a moment to apply the new rate before the host
	// switches its own side; matches the hardware-settle rationale behind
	// the sender's pre-send sleep.
	time.Sleep(500 * time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return nxdnradio.ErrDeviceNotFound
	}
	_ = l.port.Close()
	port, err := l.opener(l.path, newBaud)
	if err != nil {
		l.destroyed = true
		return fmt.Errorf("%w: %v", nxdnradio.ErrDeviceNotFound, err)
	}
	l.port = port
	l.baud = newBaud
	log.Infof("[SERIAL] baudrate upgraded to %d", newBaud)
	return nil
}

// Destroy marks the link dead and closes the underlying port. Any
// in-flight or future Write/ReadFrame fails with ErrDeviceNotFound.
func (l *Link) Destroy() {
	l.destroy()
}

func (l *Link) destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return
	}
	l.destroyed = true
	_ = l.port.Close()
	log.Warnf("[SERIAL] link destroyed")
}

// Destroyed reports whether the link has been torn down.
func (l *Link) Destroyed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.destroyed
}
