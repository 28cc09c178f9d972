package marlin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	p, err := parsePosition("X:1.00 Y:-2.50 Z:3.20 E:0.00 Count X:80 Y:-200 Z:1280")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, -2.5, p.Y)
	assert.Equal(t, 3.2, p.Z)
	assert.Equal(t, 0.0, p.E)

	_, err = parsePosition("echo:busy: processing")
	assert.Error(t, err)
}

func TestParseTriggerState(t *testing.T) {
	name, trig, err := parseTriggerState("probe_centering: TRIGGERED")
	require.NoError(t, err)
	assert.Equal(t, "probe_centering", name)
	assert.True(t, trig)

	name, trig, err = parseTriggerState("z_min: open")
	require.NoError(t, err)
	assert.Equal(t, "z_min", name)
	assert.False(t, trig)

	_, _, err = parseTriggerState("Reporting endstop status")
	assert.Error(t, err)
}

func TestParsePadStatus(t *testing.T) {
	st, err := parsePadStatus(`{"border-pads": 1, "tmp": 5, "test-pads": [1, 0, 1, 0, 0, 1, 0, 0]}`)
	require.NoError(t, err)
	assert.True(t, st.BorderPads)
	assert.Equal(t, 8, st.NumPads)
	assert.Equal(t, uint32(0xA4), st.Pads)
	assert.True(t, st.Bit(0))
	assert.False(t, st.Bit(1))

	_, err = parsePadStatus("not json")
	assert.Error(t, err)
}
