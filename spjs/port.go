package spjs

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
)

var errPortClosed = errors.New("spjs: port closed")

// Port adapts one serial port behind the SPJS server to io.ReadWriter,
// so protocol code written against a local serial port runs unchanged
// over the bridge.
type Port struct {
	c    *Client
	name string

	nextID uint64

	mx     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

// Port returns a Port for the named serial port, creating it on first
// use.
func (c *Client) Port(name string) *Port {
	c.portMx.Lock()
	defer c.portMx.Unlock()
	if p, ok := c.ports[name]; ok {
		return p
	}
	p := &Port{c: c, name: name}
	p.cond = sync.NewCond(&p.mx)
	c.ports[name] = p
	return p
}

// push appends received data and wakes any blocked reader.
func (p *Port) push(data []byte) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.buf = append(p.buf, data...)
	p.cond.Broadcast()
}

// Read blocks until data arrives from the port.
func (p *Port) Read(b []byte) (int, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	for len(p.buf) == 0 {
		if p.closed {
			return 0, errPortClosed
		}
		p.cond.Wait()
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// Write sends data to the port via sendjson.
func (p *Port) Write(b []byte) (int, error) {
	p.mx.Lock()
	closed := p.closed
	p.mx.Unlock()
	if closed {
		return 0, errPortClosed
	}

	id := atomic.AddUint64(&p.nextID, 1)
	p.c.SendJSON(JSON{
		Port: p.name,
		Data: []Data{{Data: string(b), ID: p.name + "-" + strconv.FormatUint(id, 10)}},
	})
	return len(b), nil
}

// Close unblocks readers. The server-side port stays open.
func (p *Port) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}
