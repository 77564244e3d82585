// Package esp32 receives scan reports from an ESP32 running a Bluetooth
// scanner sketch and attached over a serial port.
//
// The board prints one block per scan:
//
//	>>>devices
//	f4:5c:89:12:34:56,-61,Living Room Speaker
//	5e:21:9b:04:c7:e2,-77
//	>>>done
package esp32

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.bug.st/serial"
)

// Block framing markers.
const (
	StartMarker = ">>>devices"
	DoneMarker  = ">>>done"
)

// ErrTimeout is returned when the port delivered no data within the read
// timeout. The receiver keeps any partial block, so ReadBlock may simply be
// called again.
var ErrTimeout = errors.New("esp32: read timeout")

// Block is one scan report.
type Block struct {
	Lines    []string
	Received time.Time
}

// Receiver reads blocks from a line-oriented stream.
type Receiver struct {
	r         *bufio.Reader
	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
	now       func() time.Time

	partial []byte
	inBlock bool
	lines   []string
}

// NewReceiver reads blocks from r. A reader that signals a read timeout must
// return ErrTimeout, not (0, nil).
func NewReceiver(r io.Reader) *Receiver {
	rcv := &Receiver{r: bufio.NewReader(r), now: time.Now}
	if c, ok := r.(io.Closer); ok {
		rcv.closer = c
	}
	return rcv
}

// Open opens a serial port and returns a Receiver for it.
func Open(port string, baud int, timeout time.Duration) (*Receiver, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s", port)
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, pkgerrors.Wrapf(err, "set read timeout on %s", port)
	}
	return NewReceiver(&timeoutReader{port: p}), nil
}

// Close closes the underlying port. Only the first call has an effect.
func (r *Receiver) Close() error {
	if r.closer == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		r.closeErr = r.closer.Close()
	})
	return r.closeErr
}

// ReadBlock returns the next complete block. Lines before the start marker
// are ignored. A second start marker inside a block starts it over.
//
// ErrTimeout leaves the partial block in place. io.EOF before a block starts
// is returned as is; inside a block it becomes io.ErrUnexpectedEOF.
func (r *Receiver) ReadBlock() (Block, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && r.inBlock {
				r.reset()
				return Block{}, io.ErrUnexpectedEOF
			}
			return Block{}, err
		}

		switch {
		case line == StartMarker:
			r.inBlock = true
			r.lines = nil
		case !r.inBlock:
		case line == DoneMarker:
			b := Block{Lines: r.lines, Received: r.now()}
			r.reset()
			return b, nil
		default:
			r.lines = append(r.lines, line)
		}
	}
}

func (r *Receiver) reset() {
	r.inBlock = false
	r.lines = nil
}

// readLine returns the next line without its line ending. A line cut short
// by a timeout is completed on the next call.
func (r *Receiver) readLine() (string, error) {
	s, err := r.r.ReadString('\n')
	r.partial = append(r.partial, s...)
	if err != nil && !(errors.Is(err, io.EOF) && len(r.partial) > 0) {
		return "", err
	}
	line := strings.TrimRight(string(r.partial), "\r\n")
	r.partial = r.partial[:0]
	return line, nil
}

// timeoutReader reports an empty read from the port as ErrTimeout.
type timeoutReader struct {
	port serial.Port
}

func (t *timeoutReader) Read(b []byte) (int, error) {
	n, err := t.port.Read(b)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}

func (t *timeoutReader) Close() error {
	return t.port.Close()
}
