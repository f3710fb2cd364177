package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Set tracks the observations of each feature in insertion order. Every feature holds
// m observations; shorter inputs are zero padded.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of features in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the observations of a feature, replacing any previous values of the same feature
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.set == nil {
		s.set = make(map[string][]float64)
	}

	if len(data) > s.m {
		s.m = len(data)
		for label, vals := range s.set {
			s.set[label] = pad(vals, s.m)
		}
	}

	label := f.String()
	if _, exists := s.set[label]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[label] = pad(data, s.m)
	return s
}

func pad(data []float64, m int) []float64 {
	if len(data) >= m {
		return data
	}
	res := make([]float64, m)
	copy(res, data)
	return res
}

// Get returns the observations of a feature and whether it exists in the set
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) *Set {
	label := f.String()
	if _, exists := s.set[label]; !exists {
		return s
	}
	delete(s.set, label)
	for i, l := range s.labels {
		if l.String() == label {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			break
		}
	}
	if len(s.labels) == 0 {
		s.m = 0
		s.labels = nil
	}
	return s
}

// Update sets every feature of the input set onto this set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, f := range other.labels {
		s.Set(f, other.set[f.String()])
	}
	return s
}

// Labels returns the features in insertion order
func (s *Set) Labels() *Labels {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return NewLabels(labels)
}

// Filter returns a new set with only the features of the given type
func (s *Set) Filter(ft FeatureType) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, f := range s.labels {
		if f.Type() == ft {
			res.Set(f, s.set[f.String()])
		}
	}
	return res
}

// RemoveZeroOnlyFeatures drops features with no non-zero observations since they carry
// no information for a fit
func (s *Set) RemoveZeroOnlyFeatures() {
	if s == nil {
		return
	}
	for _, f := range s.Labels().Labels() {
		data := s.set[f.String()]
		if len(data) == 0 || (floats.Min(data) == 0 && floats.Max(data) == 0) {
			s.Del(f)
		}
	}
}

// Matrix returns a matrix representation of the Set to be used with matrix methods
// The matrix has m rows representing the number of observations and n columns representing
// the number of features.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	if s == nil || len(s.labels) == 0 || s.m == 0 {
		return nil
	}

	m := s.m
	n := len(s.labels)
	if intercept {
		n++
	}

	obs := make([]float64, m*n)
	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			obs[n*i] = 1.0
		}
		featNum++
	}

	for _, label := range s.labels {
		data := s.set[label.String()]
		for i := 0; i < m; i++ {
			obs[n*i+featNum] = data[i]
		}
		featNum++
	}
	return mat.NewDense(m, n, obs)
}

// MatrixSlice returns the Set as a slice of columns where each entry is one feature.
// Takes an intercept input if we want to include the intercept term as the first column.
func (s *Set) MatrixSlice(intercept bool) [][]float64 {
	if s == nil || len(s.labels) == 0 {
		return nil
	}

	n := len(s.labels)
	if intercept {
		n++
	}

	obs := make([][]float64, 0, n)
	if intercept {
		ones := make([]float64, s.m)
		floats.AddConst(1.0, ones)
		obs = append(obs, ones)
	}

	for _, label := range s.labels {
		obs = append(obs, s.set[label.String()])
	}
	return obs
}
