package forecaster

import (
	"io"

	"github.com/aouyang1/go-inflation-forecaster/forecast"
	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
)

// Model is the serializeable form of a fit Forecaster
type Model struct {
	Options     *Options         `json:"options"`
	Series      forecast.Model   `json:"series_model"`
	Uncertainty UncertaintyModel `json:"uncertainty_model"`
}

func (m Model) TablePrint(w io.Writer) error {
	p := util.NewPrinter(w, "", "  ")
	p.Linef(0, "Series:")
	if err := p.Err(); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "", "  "); err != nil {
		return err
	}

	u := m.Uncertainty
	p.Linef(0, "")
	p.Linef(0, "Uncertainty:")
	p.Linef(1, "Interval Width: %.2f (z=%.3f)", u.IntervalWidth, u.Z)
	p.Linef(1, "Residual StdDev: %.3f    Step StdDev: %.3f    Step: %s", u.Sigma, u.StepStdDev, u.Interval)
	p.Linef(0, "")
	return p.Err()
}
