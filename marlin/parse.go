package marlin

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/schutzwerk/PROBoter/motion"
	"github.com/schutzwerk/PROBoter/testpcb"
)

// parsePosition parses an M114 position report of the form
// "X:1.00 Y:2.00 Z:3.00 E:0.00 Count X:10 ...". The step-count tail is
// ignored.
func parsePosition(data string) (p motion.Position, err error) {
	if i := strings.Index(data, "Count"); i >= 0 {
		data = data[:i]
	}
	seen := 0
	for _, part := range strings.Fields(data) {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		val, verr := strconv.ParseFloat(kv[1], 64)
		if verr != nil {
			return p, verr
		}
		switch kv[0] {
		case "X":
			p.X = val
		case "Y":
			p.Y = val
		case "Z":
			p.Z = val
		case "E":
			p.E = val
		default:
			continue
		}
		seen++
	}
	if seen < 3 {
		return p, errors.New("not a position report")
	}
	return p, nil
}

func isPositionReport(data string) bool {
	return strings.HasPrefix(data, "X:")
}

// parseTriggerState parses an endstop-style state line such as
// "probe_centering: TRIGGERED".
func parseTriggerState(data string) (name string, triggered bool, err error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return "", false, errors.New("not a trigger state line")
	}
	state := strings.TrimSpace(parts[1])
	switch state {
	case "TRIGGERED":
		triggered = true
	case "open":
		triggered = false
	default:
		return "", false, errors.New("unknown trigger state: " + state)
	}
	return strings.TrimSpace(parts[0]), triggered, nil
}

// parsePadStatus parses the JSON status line the firmware emits for a
// pad scan: {"border-pads": 1, "test-pads": [1, 0, ...]}. The list is
// in clock-out order and is packed most-significant-first.
func parsePadStatus(data string) (testpcb.Status, error) {
	var raw struct {
		BorderPads int   `json:"border-pads"`
		TestPads   []int `json:"test-pads"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return testpcb.Status{}, err
	}

	st := testpcb.Status{
		BorderPads: raw.BorderPads != 0,
		NumPads:    len(raw.TestPads),
	}
	for i, b := range raw.TestPads {
		if b != 0 {
			st.Pads |= 1 << uint(st.NumPads-1-i)
		}
	}
	return st, nil
}
