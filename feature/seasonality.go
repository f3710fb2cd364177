package feature

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	return lookup(s, label)
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

// UnmarshalJSON decodes the label map produced by Decode where the order is a string
func (s *Seasonality) UnmarshalJSON(data []byte) error {
	var labels map[string]string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	order, err := strconv.Atoi(labels["order"])
	if err != nil {
		return fmt.Errorf("invalid seasonality order %q, %w", labels["order"], err)
	}
	*s = Seasonality{
		Name:        labels["name"],
		FourierComp: FourierComp(labels["fourier_component"]),
		Order:       order,
	}
	return nil
}

// Generate evaluates the Fourier component of the feature's order over the epoch seconds
// for a period given in seconds
func (s Seasonality) Generate(epoch []float64, order int, period float64) []float64 {
	omega := 2.0 * math.Pi * float64(order) / period
	res := make([]float64, len(epoch))
	for i, e := range epoch {
		rad := omega * e
		switch s.FourierComp {
		case FourierCompSin:
			res[i] = math.Sin(rad)
		case FourierCompCos:
			res[i] = math.Cos(rad)
		}
	}
	return res
}
