package forecast

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/feature"
	"github.com/aouyang1/go-inflation-forecaster/forecast/options"
	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
	"github.com/goccy/go-json"
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

// featureKinds allocates an empty feature for each serialized feature type
var featureKinds = map[feature.FeatureType]func() feature.Feature{
	feature.FeatureTypeChangepoint: func() feature.Feature { return new(feature.Changepoint) },
	feature.FeatureTypeSeasonality: func() feature.Feature { return new(feature.Seasonality) },
	feature.FeatureTypeGrowth:      func() feature.Feature { return new(feature.Growth) },
	feature.FeatureTypeTime:        func() feature.Feature { return new(feature.Time) },
}

// Model is the serialized state of a fitted trend and seasonality forecast. It can be stored
// and later loaded to predict without refitting.
type Model struct {
	TrainStartTime time.Time        `json:"train_start_time"`
	TrainEndTime   time.Time        `json:"train_end_time"`
	Options        *options.Options `json:"options"`
	Scores         *Scores          `json:"scores"`
	Weights        Weights          `json:"weights"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	p := util.NewPrinter(w, prefix, indent)
	p.Linef(0, "Forecast:")
	p.Linef(1, "Training Window: %s to %s",
		m.TrainStartTime.Format(time.DateOnly), m.TrainEndTime.Format(time.DateOnly))
	if err := p.Err(); err != nil {
		return err
	}

	if m.Options != nil {
		if err := m.Options.TablePrint(w, prefix, indent, 1); err != nil {
			return err
		}
	}

	if s := m.Scores; s != nil {
		p.Linef(0, "Scores:")
		p.Linef(1, "MAPE: %.3f    MSE: %.3f    R2: %.3f", s.MAPE, s.MSE, s.R2)
	}
	m.Weights.print(p, 0)
	return p.Err()
}

// Weights are the fitted coefficients paired with the feature each one multiplies
type Weights struct {
	Coef []FeatureWeight `json:"coefficients"`
}

// FeatureLabels decodes every feature in coefficient order
func (w *Weights) FeatureLabels() ([]feature.Feature, error) {
	labels := make([]feature.Feature, len(w.Coef))
	for i := range w.Coef {
		feat, err := w.Coef[i].ToFeature()
		if err != nil {
			return nil, fmt.Errorf("coefficient %d, %w", i, err)
		}
		labels[i] = feat
	}
	return labels, nil
}

// Coefficients returns a slice copy of the coefficients
func (w *Weights) Coefficients() []float64 {
	coef := make([]float64, len(w.Coef))
	for i, fw := range w.Coef {
		coef[i] = fw.Value
	}
	return coef
}

// print writes a right aligned table of type, labels and value. Coefficients zeroed out by
// the lasso penalty are shown as "...".
func (w Weights) print(p *util.Printer, level int) {
	p.Linef(level, "Weights:")
	if p.Err() != nil {
		return
	}

	tbl := tabwriter.NewWriter(p.Writer(), 0, 0, 1, ' ', tabwriter.AlignRight)
	lead := p.Lead(level + 1)
	fmt.Fprintf(tbl, "%sType\tLabels\tValue\t\n", lead)
	for _, fw := range w.Coef {
		labels, err := json.Marshal(fw.Labels)
		if err != nil {
			p.Fail(err)
			return
		}
		val := "..."
		if fw.Value != 0 {
			val = fmt.Sprintf("%.3f", fw.Value)
		}
		fmt.Fprintf(tbl, "%s%s\t%s\t%s\t\n", lead, fw.Type, labels, val)
	}
	p.Fail(tbl.Flush())
}

// FeatureWeight is a single coefficient with the type and labels needed to rebuild its feature
type FeatureWeight struct {
	Labels map[string]string   `json:"labels"`
	Type   feature.FeatureType `json:"type"`
	Value  float64             `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}

// ToFeature rebuilds the feature by decoding the labels into the concrete type
func (fw *FeatureWeight) ToFeature() (feature.Feature, error) {
	if fw == nil {
		return nil, ErrUnknownFeatureType
	}
	kind, ok := featureKinds[fw.Type]
	if !ok {
		return nil, fmt.Errorf("%q, %w", fw.Type, ErrUnknownFeatureType)
	}

	raw, err := json.Marshal(fw.Labels)
	if err != nil {
		return nil, err
	}
	feat := kind()
	if err := json.Unmarshal(raw, feat); err != nil {
		return nil, fmt.Errorf("unable to decode %s labels, %w", fw.Type, err)
	}
	return feat, nil
}
