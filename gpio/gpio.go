// Package gpio defines the minimal pin-level interfaces the peripheral
// drivers are written against. The real pins live behind a hardware
// abstraction; in-memory implementations back the tests and the
// simulator.
package gpio

// Input is a digital input pin.
type Input interface {
	Read() bool
}

// Output is a digital output pin.
type Output interface {
	Set(v bool)
}

// PWM is a proportional output channel with 8-bit resolution.
type PWM interface {
	SetDuty(level uint8)
}

// InputFunc adapts a function to the Input interface.
type InputFunc func() bool

func (f InputFunc) Read() bool { return f() }

// MemInput is an in-memory input pin.
type MemInput struct {
	V bool
}

func (p *MemInput) Read() bool { return p.V }

// MemOutput is an in-memory output pin that records its writes.
type MemOutput struct {
	V      bool
	Writes int
}

func (p *MemOutput) Set(v bool) {
	p.V = v
	p.Writes++
}

// MemPWM is an in-memory PWM channel that records its writes.
type MemPWM struct {
	Level  uint8
	Writes int
}

func (p *MemPWM) SetDuty(level uint8) {
	p.Level = level
	p.Writes++
}
