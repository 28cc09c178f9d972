package main

import (
	"encoding/json"
	"io"
	stdlog "log"
	"math"
	"net/http"
	"strconv"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/probe"
)

type api struct {
	http.Handler
	engine *probe.Engine
	periph peripherals
	log    zerolog.Logger
	sse    *sse.Server
}

func newAPI(engine *probe.Engine, periph peripherals, log zerolog.Logger) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		engine:  engine,
		periph:  periph,
		log:     log,
		sse: sse.NewServer(&sse.Options{
			Logger: stdlog.New(io.Discard, "", 0),
		}),
	}

	r.HandleFunc("/api/status", a.status).Methods("GET")
	r.HandleFunc("/api/probe/center", a.center).Methods("POST")
	r.HandleFunc("/api/probe/vertical", a.vertical).Methods("POST")
	r.HandleFunc("/api/pads", a.pads).Methods("GET")
	r.HandleFunc("/api/light", a.lightStatus).Methods("GET")
	r.HandleFunc("/api/light", a.lightSet).Methods("POST")

	r.PathPrefix("/events/").Handler(a.sse)
	go func() {
		for ev := range engine.Events() {
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("marshal event")
				continue
			}
			a.sse.SendMessage("/events/probe", sse.SimpleMessage(string(data)))
		}
	}()

	return a
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func roundPoint(p coord.Point) pointJSON {
	return pointJSON{X: round3(p.X), Y: round3(p.Y), Z: round3(p.Z)}
}

func (a *api) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error().Err(err).Msg("encode response")
	}
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	a.writeJSON(w, struct {
		Position pointJSON `json:"position"`
		LastZ    float64   `json:"last_z"`
	}{
		Position: roundPoint(a.engine.Position().Point),
		LastZ:    round3(a.engine.LastMeasuredZ()),
	})
}

func (a *api) center(w http.ResponseWriter, req *http.Request) {
	res, err := a.engine.CenterFeature()
	if err != nil {
		a.log.Error().Err(err).Msg("center feature")
		code := http.StatusInternalServerError
		if err == probe.ErrNoInitialContact || err == probe.ErrBusy {
			code = http.StatusConflict
		}
		http.Error(w, err.Error(), code)
		return
	}

	cal := res.Samples.CalibrationPoints()
	out := struct {
		Center    pointJSON   `json:"center"`
		Radius    float64     `json:"radius"`
		CalPoints []pointJSON `json:"calibration_points"`
		Converged bool        `json:"converged"`
	}{
		Center:    roundPoint(res.Center),
		Radius:    round3(res.Radius),
		Converged: true,
	}
	for _, s := range cal {
		out.CalPoints = append(out.CalPoints, roundPoint(s.Point))
	}
	for _, s := range res.Samples {
		if !s.Converged {
			out.Converged = false
		}
	}
	a.writeJSON(w, out)
}

func (a *api) vertical(w http.ResponseWriter, req *http.Request) {
	var err error
	parse := func(param string) (val float64) {
		if err != nil {
			return 0
		}
		val, err = strconv.ParseFloat(req.FormValue(param), 64)
		return val
	}
	zTarget := parse("zTarget")
	retractValue := parse("retractValue")
	feed := parse("feed")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode := probe.RetractRelative
	if req.FormValue("mode") == "absolute" {
		mode = probe.RetractAbsolute
	}

	triggered, z, err := a.engine.Vertical(zTarget, mode, retractValue, feed)
	if err != nil {
		a.log.Error().Err(err).Msg("vertical probe")
		code := http.StatusInternalServerError
		if err == probe.ErrBusy {
			code = http.StatusConflict
		}
		http.Error(w, err.Error(), code)
		return
	}

	a.writeJSON(w, struct {
		Triggered bool    `json:"triggered"`
		Z         float64 `json:"z"`
	}{Triggered: triggered, Z: round3(z)})
}

func (a *api) pads(w http.ResponseWriter, req *http.Request) {
	st, err := a.periph.ScanPads()
	if err != nil {
		a.log.Error().Err(err).Msg("pad scan")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	pads := make([]int, st.NumPads)
	for i, b := range st.Bits() {
		if b {
			pads[i] = 1
		}
	}
	a.writeJSON(w, struct {
		BorderPads bool  `json:"border-pads"`
		TestPads   []int `json:"test-pads"`
	}{BorderPads: st.BorderPads, TestPads: pads})
}

func (a *api) lightStatus(w http.ResponseWriter, req *http.Request) {
	st, err := a.periph.LightStatus()
	if err != nil {
		a.log.Error().Err(err).Msg("light status")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	a.writeJSON(w, struct {
		Status int `json:"status"`
	}{Status: st})
}

func (a *api) lightSet(w http.ResponseWriter, req *http.Request) {
	level, err := strconv.ParseUint(req.FormValue("level"), 10, 8)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.periph.SetLightIntensity(uint8(level)); err != nil {
		a.log.Error().Err(err).Msg("set light intensity")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
