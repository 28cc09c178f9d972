package gcode

import (
	"bytes"
	"io"
)

// Buffer renders blocks from a Reader into a byte stream, one
// command line per block.
type Buffer struct {
	gr  Reader
	buf bytes.Buffer
	err error
}

var _ io.Reader = &Buffer{}

func NewBuffer(r Reader) *Buffer {
	return &Buffer{gr: r}
}
func (b *Buffer) Buffered() []byte { return b.buf.Bytes() }

func (b *Buffer) Read(p []byte) (n int, err error) {
	for b.err == nil && b.buf.Len() < len(p) {
		var block Block
		block, b.err = b.gr.Read()
		if b.err != nil {
			break
		}
		b.buf.WriteString(block.String() + "\n")
	}
	if b.err != nil && b.err != io.EOF && b.buf.Len() == 0 {
		return 0, b.err
	}

	n, _ = b.buf.Read(p)
	if n == 0 && b.err != nil {
		return 0, b.err
	}
	return n, nil
}
