package feature

import (
	"fmt"
	"time"
)

// Time is a raw time derived feature such as the unix epoch in seconds. It is used to
// generate the other features and is not fit directly.
type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return fmt.Sprintf("tfeat_%s", t.Name)
}

func (t Time) Get(label string) (string, bool) {
	return lookup(t, label)
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	return map[string]string{"name": t.Name}
}

// Generate returns the unix epoch in fractional seconds of each timestamp
func (t Time) Generate(ts []time.Time) []float64 {
	epoch := make([]float64, len(ts))
	for i, tPnt := range ts {
		epoch[i] = float64(tPnt.UnixNano()) / 1e9
	}
	return epoch
}
