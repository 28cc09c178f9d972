package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWord_String(t *testing.T) {
	assert.Equal(t, "G0", Word{W: 'G'}.String())
	assert.Equal(t, "X1.5", Word{W: 'X', Arg: 1.5}.String())
	assert.Equal(t, "Z3.142", Word{W: 'Z', Arg: 3.14159}.String())
	assert.Equal(t, "F600", Word{W: 'F', Arg: 600}.String())
}

func TestBlock_String(t *testing.T) {
	b := Block{
		{W: 'G', Arg: 0},
		{W: 'X', Arg: 12.3456},
		{W: 'Y', Arg: -4},
		{W: 'F', Arg: 300},
	}
	assert.Equal(t, "G0 X12.346 Y-4 F300", b.String())
}

func TestBlock_Validate(t *testing.T) {
	ok := Block{{W: 'G', Arg: 0}, {W: 'X', Arg: 1}, {W: 'Y', Arg: 2}}
	assert.NoError(t, ok.Validate())

	dup := Block{{W: 'G', Arg: 0}, {W: 'X', Arg: 1}, {W: 'X', Arg: 2}}
	assert.Error(t, dup.Validate())

	bad := Block{{W: '!', Arg: 1}}
	assert.Error(t, bad.Validate())
}

func TestBuffer_Read(t *testing.T) {
	blocks := []Block{
		{{W: 'G', Arg: 1}, {W: 'G', Arg: 2}},

		{{W: 'M', Arg: 2}},
	}

	gr := &BlocksReader{Blocks: blocks}

	b := NewBuffer(gr)

	buf := make([]byte, 12)
	n, err := b.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, []byte("G1 G2\nM2\n"), buf[:n])

	n, err = b.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}
