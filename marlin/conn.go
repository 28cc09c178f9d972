// Package marlin drives a Marlin-flavored motion controller over a
// line-oriented serial protocol.
package marlin

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// commandBuffer is the firmware's planner command buffer depth. At
// most this many lines are in flight before writes wait for an ack.
const commandBuffer = 4

// ErrConnClosed is returned from write methods once the connection is
// closed.
var ErrConnClosed = errors.New("marlin: connection closed")

// Conn manages the ok-acknowledge protocol on top of a ReadWriter.
// Unsolicited report lines (position, trigger state, pad status) are
// delivered on the Reports channel.
type Conn struct {
	rw   io.ReadWriter
	scan *bufio.Scanner

	ackCh   chan error
	closeCh chan struct{}
	reports chan string

	closeOnce sync.Once

	wMx      sync.Mutex
	inflight int32
}

// NewConn creates a Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter) *Conn {
	c := &Conn{
		rw:      rw,
		scan:    bufio.NewScanner(rw),
		ackCh:   make(chan error),
		closeCh: make(chan struct{}),
		reports: make(chan string, 64),
	}
	go c.readLoop()
	return c
}

// Close aborts in-progress writes and closes the underlying
// ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reports returns the unsolicited report line channel. Lines are
// dropped when the consumer falls behind.
func (c *Conn) Reports() <-chan string { return c.reports }

// Pending reports whether written lines still await acknowledgement.
func (c *Conn) Pending() bool { return atomic.LoadInt32(&c.inflight) > 0 }

func (c *Conn) readLoop() {
	for c.scan.Scan() {
		line := strings.TrimSpace(c.scan.Text())
		switch {
		case line == "":
		case line == "ok" || strings.HasPrefix(line, "ok "):
			select {
			case c.ackCh <- nil:
			case <-c.closeCh:
				return
			}
		case strings.HasPrefix(line, "Error:") || strings.HasPrefix(line, "!!"):
			select {
			case c.ackCh <- errors.New("marlin: " + line):
			case <-c.closeCh:
				return
			}
		default:
			select {
			case c.reports <- line:
			default:
			}
		}
	}
	c.closeOnce.Do(func() { close(c.closeCh) })
}

func (c *Conn) next() error {
	select {
	case <-c.closeCh:
		return ErrConnClosed
	case err := <-c.ackCh:
		atomic.AddInt32(&c.inflight, -1)
		return err
	}
}

// WriteLine writes one command line, waiting for acknowledgements
// until the firmware buffer has room.
func (c *Conn) WriteLine(line string) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()

	for atomic.LoadInt32(&c.inflight) >= commandBuffer {
		if err := c.next(); err != nil {
			return err
		}
	}
	return c.write(line)
}

// WriteEmergency writes a line without waiting for buffer room. Only
// commands handled by the firmware's emergency parser (such as M410)
// may skip the buffer accounting wait.
func (c *Conn) WriteEmergency(line string) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	return c.write(line)
}

func (c *Conn) write(line string) error {
	select {
	case <-c.closeCh:
		return ErrConnClosed
	default:
	}
	if _, err := io.WriteString(c.rw, line+"\n"); err != nil {
		return err
	}
	atomic.AddInt32(&c.inflight, 1)
	return nil
}

// Drain blocks until every written line has been acknowledged.
func (c *Conn) Drain() error {
	c.wMx.Lock()
	defer c.wMx.Unlock()

	var err error
	for atomic.LoadInt32(&c.inflight) > 0 {
		if e := c.next(); err == nil {
			err = e
		}
	}
	return err
}
