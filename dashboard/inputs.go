package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aouyang1/go-inflation-forecaster/config"
	"github.com/aouyang1/go-inflation-forecaster/observation"
)

var ErrInvalidInput = errors.New("invalid input")

// Inputs are the user controlled values of a single render
type Inputs struct {
	Horizon       int     `json:"horizon"`
	ManualEnabled bool    `json:"manual_enabled"`
	ManualValue   float64 `json:"manual_value"`
}

func NewDefaultInputs() Inputs {
	return Inputs{Horizon: config.DefaultHorizon}
}

// Normalise clamps the horizon to [MinHorizon, MaxHorizon] and the manual value to [0, 100].
// A zero horizon is replaced by the default.
func (in Inputs) Normalise() Inputs {
	if in.Horizon == 0 {
		in.Horizon = config.DefaultHorizon
	}
	in.Horizon = min(max(in.Horizon, config.MinHorizon), config.MaxHorizon)
	in.ManualValue = observation.ClampValue(in.ManualValue)
	return in
}

// ParseInputs reads horizon, manual and value from a query string starting from the defaults.
// Values that do not parse are rejected, out of range values are clamped.
func ParseInputs(q url.Values, defaults Inputs) (Inputs, error) {
	in := defaults
	if v := strings.TrimSpace(q.Get("horizon")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Inputs{}, fmt.Errorf("horizon %q, %w", v, ErrInvalidInput)
		}
		in.Horizon = n
	}
	if v := strings.TrimSpace(q.Get("manual")); v != "" {
		switch strings.ToLower(v) {
		case "on", "1", "true", "yes":
			in.ManualEnabled = true
		case "off", "0", "false", "no":
			in.ManualEnabled = false
		default:
			return Inputs{}, fmt.Errorf("manual %q, %w", v, ErrInvalidInput)
		}
	}
	if v := strings.TrimSpace(q.Get("value")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Inputs{}, fmt.Errorf("value %q, %w", v, ErrInvalidInput)
		}
		in.ManualValue = f
	}
	return in.Normalise(), nil
}

// Query encodes the inputs back into a query string
func (in Inputs) Query() url.Values {
	q := url.Values{}
	q.Set("horizon", strconv.Itoa(in.Horizon))
	if in.ManualEnabled {
		q.Set("manual", "on")
		q.Set("value", strconv.FormatFloat(in.ManualValue, 'g', -1, 64))
	}
	return q
}
