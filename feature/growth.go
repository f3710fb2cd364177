package feature

import (
	"fmt"
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth is the base trend of the model: a constant intercept or a linear ramp over the
// training window
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

func (g Growth) Get(label string) (string, bool) {
	return lookup(g, label)
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

// Generate evaluates the growth feature over the epoch seconds. Linear growth is 0 at the
// training start and 1 at the training end. Returns nil for an empty training window or an
// unknown growth name.
func (g Growth) Generate(epoch []float64, trainStartTime, trainEndTime time.Time) []float64 {
	if !trainEndTime.After(trainStartTime) {
		return nil
	}

	switch g.Name {
	case GrowthIntercept:
		res := make([]float64, len(epoch))
		for i := range res {
			res[i] = 1.0
		}
		return res
	case GrowthLinear:
		return ScaleTime(epoch, trainStartTime, trainEndTime)
	}
	return nil
}

// ScaleTime maps epoch seconds onto the training window so that the training start is 0 and
// the training end is 1. Values outside the window extrapolate linearly.
func ScaleTime(epoch []float64, trainStartTime, trainEndTime time.Time) []float64 {
	start := float64(trainStartTime.Unix())
	span := float64(trainEndTime.Unix()) - start
	res := make([]float64, len(epoch))
	if span <= 0 {
		return res
	}
	for i, e := range epoch {
		res[i] = (e - start) / span
	}
	return res
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}
