package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every flag name must unmarshal into its Config field, so the
// flag.Visit override pass in loadConfig reaches all settings.
func TestConfigFlagKeyMapping(t *testing.T) {
	v := viper.New()
	v.Set("port", "/dev/ttyACM0")
	v.Set("baud", 250000)
	v.Set("spjs", "ws://bridge:8989/ws")
	v.Set("addr", ":8080")
	v.Set("sim", true)
	v.Set("pads", 12)
	v.Set("probefeed", 90.0)
	v.Set("travelfeed", 450.0)
	v.Set("ztravel", 42.5)
	v.Set("clearance", 0.5)
	v.Set("initialstep", 0.8)
	v.Set("minstep", 0.005)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "/dev/ttyACM0", cfg.Port)
	assert.Equal(t, 250000, cfg.Baud)
	assert.Equal(t, "ws://bridge:8989/ws", cfg.SPJSURL)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.Sim)
	assert.Equal(t, 12, cfg.Pads)
	assert.Equal(t, 90.0, cfg.ProbeFeed)
	assert.Equal(t, 450.0, cfg.TravelFeed)
	assert.Equal(t, 42.5, cfg.ZTravelMax)
	assert.Equal(t, 0.5, cfg.Clearance)
	assert.Equal(t, 0.8, cfg.InitialStep)
	assert.Equal(t, 0.005, cfg.MinStep)
}
