package feature

import "fmt"

type ChangepointComp string

const (
	// ChangepointCompBias is a level shift starting at the changepoint
	ChangepointCompBias ChangepointComp = "bias"

	// ChangepointCompSlope is a change in the trend rate starting at the changepoint
	ChangepointCompSlope ChangepointComp = "slope"
)

type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	return lookup(c, label)
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	return map[string]string{
		"name":                  c.Name,
		"changepoint_component": string(c.ChangepointComp),
	}
}

// Generate evaluates the changepoint component over scaled time where chptScaled is the
// changepoint location on the same scale. Both components are zero before the changepoint.
// The bias is 1 from the changepoint onwards and the slope grows as t - chptScaled.
func (c Changepoint) Generate(scaled []float64, chptScaled float64) []float64 {
	res := make([]float64, len(scaled))
	for i, s := range scaled {
		if s < chptScaled {
			continue
		}
		switch c.ChangepointComp {
		case ChangepointCompBias:
			res[i] = 1.0
		case ChangepointCompSlope:
			res[i] = s - chptScaled
		}
	}
	return res
}
