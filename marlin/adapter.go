package marlin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/schutzwerk/PROBoter/gcode"
	"github.com/schutzwerk/PROBoter/motion"
	"github.com/schutzwerk/PROBoter/testpcb"
)

// DefaultTriggerPin is the name the firmware reports the probe
// centering input under.
const DefaultTriggerPin = "probe_centering"

// settleEpsilon is the distance below which a reported position counts
// as having reached the commanded target.
const settleEpsilon = 0.01

// ErrTimeout is returned when the controller stops answering.
var ErrTimeout = errors.New("marlin: timed out waiting for controller")

// AdapterConfig configures a controller adapter.
type AdapterConfig struct {
	// TriggerPin is the reported name of the probe trigger input.
	TriggerPin string
	// PollInterval is how often position and trigger state are
	// polled while moves execute.
	PollInterval time.Duration
	// Timeout bounds waits for solicited reports.
	Timeout time.Duration
}

// Adapter implements motion.Adapter against a Marlin-flavored
// controller: G0 moves, M400 synchronize, M410 quick stop, M114 R
// position reports and endstop-style trigger reports. It also exposes
// the firmware's pad-scan and light M-codes.
type Adapter struct {
	conn *Conn
	cfg  AdapterConfig
	log  zerolog.Logger

	closeCh chan struct{}

	mx         sync.Mutex
	pos        motion.Position
	posSeq     uint64
	triggered  bool
	lastTarget motion.Position
	settled    bool

	padCh   chan testpcb.Status
	lightCh chan int
	// lightWait marks that the next bare integer report answers an
	// M375 query.
	lightWait bool
}

var _ motion.Adapter = &Adapter{}

// NewAdapter creates an adapter on the given transport (a serial port
// or the websocket bridge).
func NewAdapter(rw io.ReadWriter, cfg AdapterConfig, log zerolog.Logger) *Adapter {
	if cfg.TriggerPin == "" {
		cfg.TriggerPin = DefaultTriggerPin
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	a := &Adapter{
		conn:    NewConn(rw),
		cfg:     cfg,
		log:     log,
		closeCh: make(chan struct{}),
		settled: true,
		padCh:   make(chan testpcb.Status, 1),
		lightCh: make(chan int, 1),
	}
	go a.reportLoop()
	go a.pollLoop()
	return a
}

// Close shuts the adapter and its connection down.
func (a *Adapter) Close() error {
	close(a.closeCh)
	return a.conn.Close()
}

func (a *Adapter) pollLoop() {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-a.closeCh:
			return
		case <-t.C:
		}
		if err := a.conn.WriteLine("M114 R"); err != nil {
			a.log.Error().Err(err).Msg("poll position")
			return
		}
		if err := a.conn.WriteLine("M119"); err != nil {
			a.log.Error().Err(err).Msg("poll trigger state")
			return
		}
	}
}

func (a *Adapter) reportLoop() {
	for {
		var line string
		select {
		case <-a.closeCh:
			return
		case line = <-a.conn.Reports():
		}

		switch {
		case isPositionReport(line):
			pos, err := parsePosition(line)
			if err != nil {
				a.log.Debug().Err(err).Str("line", line).Msg("bad position report")
				continue
			}
			a.setPosition(pos)

		case strings.HasPrefix(line, "{"):
			st, err := parsePadStatus(line)
			if err != nil {
				a.log.Debug().Err(err).Str("line", line).Msg("bad pad status")
				continue
			}
			select {
			case a.padCh <- st:
			default:
			}

		default:
			if name, trig, err := parseTriggerState(line); err == nil {
				if name == a.cfg.TriggerPin {
					a.mx.Lock()
					a.triggered = trig
					a.mx.Unlock()
				}
				continue
			}
			if v, err := strconv.Atoi(line); err == nil {
				a.mx.Lock()
				wait := a.lightWait
				a.lightWait = false
				a.mx.Unlock()
				if wait {
					select {
					case a.lightCh <- v:
					default:
					}
				}
			}
		}
	}
}

func (a *Adapter) setPosition(pos motion.Position) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.pos = pos
	a.posSeq++
	if !a.settled && a.distanceToTarget(pos) <= settleEpsilon {
		a.settled = true
	}
}

func (a *Adapter) distanceToTarget(pos motion.Position) float64 {
	dx := pos.X - a.lastTarget.X
	dy := pos.Y - a.lastTarget.Y
	dz := pos.Z - a.lastTarget.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (a *Adapter) IssueMove(target motion.Position, feed float64) error {
	b := gcode.Block{
		{W: 'G', Arg: 0},
		{W: 'X', Arg: target.X},
		{W: 'Y', Arg: target.Y},
		{W: 'Z', Arg: target.Z},
		{W: 'E', Arg: target.E},
		{W: 'F', Arg: feed},
	}
	a.mx.Lock()
	a.lastTarget = target
	a.settled = false
	a.mx.Unlock()
	return a.conn.WriteLine(b.String())
}

func (a *Adapter) Pending() bool {
	if a.conn.Pending() {
		return true
	}
	a.mx.Lock()
	defer a.mx.Unlock()
	return !a.settled
}

func (a *Adapter) AxisPosition(axis motion.Axis) float64 {
	a.mx.Lock()
	defer a.mx.Unlock()
	switch axis {
	case motion.AxisX:
		return a.pos.X
	case motion.AxisY:
		return a.pos.Y
	case motion.AxisZ:
		return a.pos.Z
	}
	return a.pos.E
}

func (a *Adapter) QuickStop() error {
	a.mx.Lock()
	a.settled = true
	a.mx.Unlock()
	return a.conn.WriteEmergency("M410")
}

func (a *Adapter) Synchronize() error {
	if err := a.conn.WriteLine("M400"); err != nil {
		return err
	}
	if err := a.conn.Drain(); err != nil {
		return err
	}
	a.mx.Lock()
	a.settled = true
	a.mx.Unlock()
	return nil
}

// ResyncAxis requests a fresh realtime position report and returns the
// axis value from it.
func (a *Adapter) ResyncAxis(axis motion.Axis) (float64, error) {
	a.mx.Lock()
	seq := a.posSeq
	a.mx.Unlock()

	if err := a.conn.WriteLine("M114 R"); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(a.cfg.Timeout)
	for {
		a.mx.Lock()
		cur := a.posSeq
		a.mx.Unlock()
		if cur > seq {
			return a.AxisPosition(axis), nil
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("resync %s: %w", axis, ErrTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (a *Adapter) Triggered() bool {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.triggered
}

func (a *Adapter) Idle() { time.Sleep(2 * time.Millisecond) }

// Stream sends a block sequence line by line, respecting buffer flow
// control, and waits until everything is acknowledged.
func (a *Adapter) Stream(r gcode.Reader) error {
	scan := bufio.NewScanner(gcode.NewBuffer(r))
	for scan.Scan() {
		if err := a.conn.WriteLine(scan.Text()); err != nil {
			return err
		}
	}
	if err := scan.Err(); err != nil {
		return err
	}
	return a.conn.Drain()
}

// ScanPads requests a pad scan from the firmware.
func (a *Adapter) ScanPads() (testpcb.Status, error) {
	// Flush a stale unclaimed result.
	select {
	case <-a.padCh:
	default:
	}
	if err := a.conn.WriteLine("M371"); err != nil {
		return testpcb.Status{}, err
	}
	select {
	case st := <-a.padCh:
		return st, nil
	case <-time.After(a.cfg.Timeout):
		return testpcb.Status{}, fmt.Errorf("pad scan: %w", ErrTimeout)
	}
}

// SetLightIntensity sets the illumination level.
func (a *Adapter) SetLightIntensity(level uint8) error {
	return a.conn.WriteLine("M376 I" + strconv.Itoa(int(level)))
}

// LightStatus queries the light indicator; -1 means the hardware
// variant has no light control.
func (a *Adapter) LightStatus() (int, error) {
	a.mx.Lock()
	a.lightWait = true
	a.mx.Unlock()
	select {
	case <-a.lightCh:
	default:
	}
	if err := a.conn.WriteLine("M375"); err != nil {
		return 0, err
	}
	select {
	case v := <-a.lightCh:
		return v, nil
	case <-time.After(a.cfg.Timeout):
		return 0, fmt.Errorf("light status: %w", ErrTimeout)
	}
}
