package main

import (
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/gcode"
	"github.com/schutzwerk/PROBoter/gpio"
	"github.com/schutzwerk/PROBoter/light"
	"github.com/schutzwerk/PROBoter/marlin"
	"github.com/schutzwerk/PROBoter/motion"
	"github.com/schutzwerk/PROBoter/probe"
	"github.com/schutzwerk/PROBoter/sim"
	"github.com/schutzwerk/PROBoter/spjs"
	"github.com/schutzwerk/PROBoter/testpcb"
)

// peripherals covers the board-level extras beyond motion: the test
// PCB pad scan and the illumination control.
type peripherals interface {
	ScanPads() (testpcb.Status, error)
	SetLightIntensity(level uint8) error
	LightStatus() (int, error)
}

// simPeripherals backs the pad and light endpoints in simulation mode
// with in-memory pins.
type simPeripherals struct {
	light   *light.Controller
	numPads int
}

func (p simPeripherals) ScanPads() (testpcb.Status, error) {
	return testpcb.Status{NumPads: p.numPads}, nil
}
func (p simPeripherals) SetLightIntensity(level uint8) error {
	p.light.SetIntensity(level)
	return nil
}
func (p simPeripherals) LightStatus() (int, error) {
	return p.light.Status(), nil
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	pcfg := probe.Config{
		ProbeFeed:   cfg.ProbeFeed,
		TravelFeed:  cfg.TravelFeed,
		ZTravelMax:  cfg.ZTravelMax,
		Clearance:   cfg.Clearance,
		InitialStep: cfg.InitialStep,
		MinStep:     cfg.MinStep,
	}

	var adapter motion.Adapter
	var periph peripherals
	switch {
	case cfg.Sim:
		adapter = sim.New(sim.Config{
			Pad: sim.Pad{
				Center: coord.Point{Z: cfg.ZTravelMax / 2},
				Radius: 2.5,
			},
		})
		periph = simPeripherals{
			light:   light.New(&gpio.MemPWM{}, &gpio.MemInput{V: true}),
			numPads: cfg.Pads,
		}
		log.Info().Msg("probing a simulated machine")

	case cfg.SPJSURL != "":
		client := spjs.NewClient(cfg.SPJSURL, log.With().Str("component", "spjs").Logger())
		client.Open(cfg.Port, cfg.Baud)
		adapter, periph = newMarlin(client.Port(cfg.Port), log)

	default:
		port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
		if err != nil {
			log.Fatal().Err(err).Str("port", cfg.Port).Msg("open serial port")
		}
		adapter, periph = newMarlin(port, log)
	}

	engine := probe.New(pcfg, adapter, log.With().Str("component", "probe").Logger())

	api := newAPI(engine, periph, log.With().Str("component", "api").Logger())

	log.Info().Str("addr", cfg.Addr).Msg("serving")
	err = http.ListenAndServe(cfg.Addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Str("remote", req.RemoteAddr).Msg("request")
		api.ServeHTTP(w, req)
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMarlin(rw io.ReadWriter, log zerolog.Logger) (motion.Adapter, peripherals) {
	a := marlin.NewAdapter(rw, marlin.AdapterConfig{}, log.With().Str("component", "marlin").Logger())

	// Absolute positioning, steppers on.
	init := &gcode.BlocksReader{Blocks: []gcode.Block{
		{{W: 'G', Arg: 90}},
		{{W: 'M', Arg: 17}},
	}}
	if err := a.Stream(init); err != nil {
		log.Fatal().Err(err).Msg("initialize controller")
	}
	return a, a
}
