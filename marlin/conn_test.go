package marlin

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ackAll acknowledges every received line with "ok".
func ackAll(t *testing.T, rw net.Conn) {
	t.Helper()
	go func() {
		scan := bufio.NewScanner(rw)
		for scan.Scan() {
			if _, err := rw.Write([]byte("ok\n")); err != nil {
				return
			}
		}
	}()
}

func TestConn_AckFlow(t *testing.T) {
	c1, c2 := net.Pipe()
	conn := NewConn(c1)
	defer conn.Close()
	ackAll(t, c2)

	require.NoError(t, conn.WriteLine("G0 X1"))
	require.NoError(t, conn.WriteLine("M400"))
	assert.NoError(t, conn.Drain())
	assert.False(t, conn.Pending())
}

func TestConn_BufferBackpressure(t *testing.T) {
	c1, c2 := net.Pipe()
	conn := NewConn(c1)
	defer conn.Close()

	lines := make(chan string, 16)
	go func() {
		scan := bufio.NewScanner(c2)
		for scan.Scan() {
			lines <- scan.Text()
		}
	}()

	// The firmware buffer is not full yet: writes return without any
	// acknowledgement.
	for i := 0; i < commandBuffer; i++ {
		require.NoError(t, conn.WriteLine("G0 X1"))
	}
	assert.True(t, conn.Pending())

	// The next write needs an ack to proceed.
	wrote := make(chan error, 1)
	go func() { wrote <- conn.WriteLine("G0 X2") }()
	select {
	case <-wrote:
		t.Fatal("write should wait for buffer room")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := c2.Write([]byte("ok\n"))
	require.NoError(t, err)
	assert.NoError(t, <-wrote)
}

func TestConn_Reports(t *testing.T) {
	c1, c2 := net.Pipe()
	conn := NewConn(c1)
	defer conn.Close()

	go c2.Write([]byte("X:1.00 Y:2.00 Z:3.00 E:0.00 Count X:8 Y:16 Z:24\n"))

	select {
	case line := <-conn.Reports():
		assert.True(t, isPositionReport(line))
	case <-time.After(time.Second):
		t.Fatal("no report received")
	}
}

func TestConn_ErrorAck(t *testing.T) {
	c1, c2 := net.Pipe()
	conn := NewConn(c1)
	defer conn.Close()
	go io.Copy(io.Discard, c2)

	require.NoError(t, conn.WriteLine("G0 X1"))
	go c2.Write([]byte("Error:Printer halted\n"))
	assert.Error(t, conn.Drain())
}
