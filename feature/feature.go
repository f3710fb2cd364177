// Package feature describes the labelled regressors of a forecast model and the
// generated observations for each of them.
package feature

import "strings"

// FeatureType groups features by the model component they contribute to
type FeatureType string

const (
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeTime        FeatureType = "time"
	FeatureTypeGrowth      FeatureType = "growth"
)

// Feature is a labelled regressor. The string representation must be unique within a Set.
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

// lookup resolves a label against the decoded labels of f ignoring case
func lookup(f Feature, label string) (string, bool) {
	v, ok := f.Decode()[strings.ToLower(label)]
	return v, ok
}
