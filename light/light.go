// Package light controls the illumination of the probing area.
package light

import (
	"github.com/schutzwerk/PROBoter/gpio"
)

// StatusUnsupported is reported when the hardware variant has no
// light control.
const StatusUnsupported = -1

// Controller drives the light output. It is stateless: intensity is
// written proportionally with no feedback loop.
type Controller struct {
	pwm    gpio.PWM
	status gpio.Input
}

// New creates a light controller. Pass nil pins for hardware variants
// without light control.
func New(pwm gpio.PWM, status gpio.Input) *Controller {
	return &Controller{pwm: pwm, status: status}
}

// SetIntensity writes a proportional output level. Writing the same
// level twice leaves the output unchanged.
func (c *Controller) SetIntensity(level uint8) {
	if c.pwm == nil {
		return
	}
	c.pwm.SetDuty(level)
}

// Status reads back the indicator pin: 1 on, 0 off, or
// StatusUnsupported when the variant lacks light control.
func (c *Controller) Status() int {
	if c.status == nil {
		return StatusUnsupported
	}
	if c.status.Read() {
		return 1
	}
	return 0
}
