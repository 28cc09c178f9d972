// Package testpcb reads the pad-continuity sensors of the test PCB: a
// daisy-chained parallel-in/serial-out shift register holding one bit
// per pad, plus a directly wired border-pad line.
package testpcb

import (
	"time"

	"github.com/schutzwerk/PROBoter/gpio"
)

// Status is one atomic snapshot of the pad sensors.
type Status struct {
	// BorderPads reports the independently wired border pad line.
	BorderPads bool `json:"border_pads"`

	// Pads holds one bit per pad, most-significant-first in physical
	// shift order: the first bit clocked out lands in bit NumPads-1.
	Pads uint32 `json:"pads"`

	// NumPads is the chain width the snapshot was taken with.
	NumPads int `json:"num_pads"`
}

// Bit returns pad i, where pad 0 is the first bit clocked out of the
// chain.
func (st Status) Bit(i int) bool {
	return st.Pads&(1<<uint(st.NumPads-1-i)) != 0
}

// Bits returns all pad bits in clock-out order.
func (st Status) Bits() []bool {
	bits := make([]bool, st.NumPads)
	for i := range bits {
		bits[i] = st.Bit(i)
	}
	return bits
}

// Pins is the wiring of the shift-register chain.
type Pins struct {
	Clock        gpio.Output // serial clock (SCLK)
	Latch        gpio.Output // data latch clock (LC)
	Load         gpio.Output // parallel load, active low (PL)
	OutputEnable gpio.Output // output enable, active low (OE)
	Data         gpio.Input  // serial data out (DO)
	BorderPads   gpio.Input  // border pad line, not part of the chain
}

// Scanner bit-bangs the shift-register chain. No state is carried
// across scans beyond the fixed pin timing.
type Scanner struct {
	pins    Pins
	numPads int
	tick    time.Duration
}

// NewScanner creates a scanner for a chain of numPads bits. tick is
// the fixed inter-edge delay; zero is allowed for tests.
func NewScanner(pins Pins, numPads int, tick time.Duration) *Scanner {
	return &Scanner{pins: pins, numPads: numPads, tick: tick}
}

func (s *Scanner) delay() {
	if s.tick > 0 {
		time.Sleep(s.tick)
	}
}

func (s *Scanner) clockTick() {
	s.pins.Clock.Set(true)
	s.delay()
	s.pins.Clock.Set(false)
	s.delay()
}

func (s *Scanner) latchTick() {
	s.pins.Latch.Set(true)
	s.delay()
	s.pins.Latch.Set(false)
	s.delay()
}

func (s *Scanner) clockLatchTick() {
	s.pins.Latch.Set(true)
	s.pins.Clock.Set(true)
	s.delay()
	s.pins.Latch.Set(false)
	s.pins.Clock.Set(false)
	s.delay()
}

// Scan latches the current sensor states into the chain and clocks
// them out serially.
func (s *Scanner) Scan() Status {
	st := Status{
		BorderPads: s.pins.BorderPads.Read(),
		NumPads:    s.numPads,
	}

	// Reset the chain.
	s.pins.Load.Set(false)
	s.pins.OutputEnable.Set(false)
	s.pins.Latch.Set(false)
	s.pins.Clock.Set(false)
	s.delay()
	s.clockLatchTick()

	// Latch the current pad states into the registers.
	s.latchTick()

	// Shift them out, one clock pulse per bit.
	s.pins.Load.Set(true)
	s.delay()
	for i := 0; i < s.numPads; i++ {
		if s.pins.Data.Read() {
			st.Pads |= 1 << uint(s.numPads-1-i)
		}
		s.clockTick()
	}

	return st
}
