package feature

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func blarghSet() *Set {
	return &Set{
		m: 4,
		set: map[string][]float64{
			"tfeat_blargh": {1, 2, 3, 4},
		},
		labels: []Feature{NewTime("blargh")},
	}
}

func TestSetSet(t *testing.T) {
	testData := map[string]struct {
		init     *Set
		f        Feature
		data     []float64
		expected *Set
	}{
		"initial set": {
			init:     NewSet(),
			f:        NewTime("blargh"),
			data:     []float64{1, 2, 3, 4},
			expected: blarghSet(),
		},
		"set with more data": {
			init: blarghSet(),
			f:    NewTime("more"),
			data: []float64{1, 2, 3, 4, 5, 6},
			expected: &Set{
				m: 6,
				set: map[string][]float64{
					"tfeat_blargh": {1, 2, 3, 4, 0, 0},
					"tfeat_more":   {1, 2, 3, 4, 5, 6},
				},
				labels: []Feature{NewTime("blargh"), NewTime("more")},
			},
		},
		"set with less data": {
			init: blarghSet(),
			f:    NewTime("less"),
			data: []float64{1, 2},
			expected: &Set{
				m: 4,
				set: map[string][]float64{
					"tfeat_blargh": {1, 2, 3, 4},
					"tfeat_less":   {1, 2, 0, 0},
				},
				labels: []Feature{NewTime("blargh"), NewTime("less")},
			},
		},
		"override": {
			init: blarghSet(),
			f:    NewTime("blargh"),
			data: []float64{5, 6, 7, 8},
			expected: &Set{
				m: 4,
				set: map[string][]float64{
					"tfeat_blargh": {5, 6, 7, 8},
				},
				labels: []Feature{NewTime("blargh")},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := td.init.Set(td.f, td.data)
			assert.Equal(t, td.expected, s)
		})
	}
}

func TestSetDel(t *testing.T) {
	testData := map[string]struct {
		init     *Set
		f        Feature
		expected *Set
	}{
		"unknown feature": {
			init:     blarghSet(),
			f:        NewTime("asdf"),
			expected: blarghSet(),
		},
		"valid delete": {
			init:     blarghSet(),
			f:        NewTime("blargh"),
			expected: NewSet(),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := td.init.Del(td.f)
			assert.Equal(t, td.expected, s)
		})
	}
}

func TestSetUpdate(t *testing.T) {
	next := NewSet().
		Set(NewChangepoint("auto_01", ChangepointCompSlope), []float64{0, 0, 1, 2, 3, 4}).
		Set(NewTime("blargh"), []float64{9, 9})

	res := blarghSet().Update(next)
	assert.Equal(t, 6, res.Rows())
	assert.Equal(t, 2, res.Len())

	vals, exists := res.Get(NewTime("blargh"))
	require.True(t, exists)
	assert.Equal(t, []float64{9, 9, 0, 0, 0, 0}, vals)

	assert.Equal(t,
		[]Feature{NewTime("blargh"), NewChangepoint("auto_01", ChangepointCompSlope)},
		res.Labels().Labels(),
	)
	assert.Equal(t, res, res.Update(nil))
}

func TestSetFilter(t *testing.T) {
	s := NewSet().
		Set(Intercept(), []float64{1, 1}).
		Set(NewChangepoint("auto_01", ChangepointCompSlope), []float64{0, 1}).
		Set(NewSeasonality("epoch_yearly", FourierCompSin, 1), []float64{0, 1})

	chpts := s.Filter(FeatureTypeChangepoint)
	assert.Equal(t, 1, chpts.Len())
	_, exists := chpts.Get(NewChangepoint("auto_01", ChangepointCompSlope))
	assert.True(t, exists)

	assert.Equal(t, 0, s.Filter(FeatureTypeTime).Len())
	assert.Equal(t, 0, (*Set)(nil).Filter(FeatureTypeGrowth).Len())
}

func TestMatrix(t *testing.T) {
	testData := map[string]struct {
		init      *Set
		intercept bool
		expected  *mat.Dense
	}{
		"nil":               {nil, true, nil},
		"initialized empty": {&Set{}, true, nil},
		"with intercept": {
			init:      blarghSet(),
			intercept: true,
			expected: mat.NewDense(4, 2, []float64{
				1, 1,
				1, 2,
				1, 3,
				1, 4,
			}),
		},
		"without intercept": {
			init:      blarghSet(),
			intercept: false,
			expected:  mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.init.Matrix(td.intercept)
			if td.expected == nil {
				assert.Nil(t, res)
				return
			}
			require.NotNil(t, res)
			resR, resC := res.Dims()
			expR, expC := td.expected.Dims()
			assert.Equal(t, expR, resR, "matrix rows")
			assert.Equal(t, expC, resC, "matrix columns")

			for i := 0; i < resR; i++ {
				assert.Equal(t, td.expected.RawRowView(i), res.RawRowView(i), fmt.Sprintf("row: %d", i))
			}
		})
	}
}

func TestMatrixSlice(t *testing.T) {
	assert.Nil(t, (*Set)(nil).MatrixSlice(true))
	assert.Equal(t,
		[][]float64{{1, 1, 1, 1}, {1, 2, 3, 4}},
		blarghSet().MatrixSlice(true),
	)
	assert.Equal(t, [][]float64{{1, 2, 3, 4}}, blarghSet().MatrixSlice(false))
}

func TestRemoveZeroOnlyFeatures(t *testing.T) {
	s := NewSet().Set(
		NewTime("valid"),
		[]float64{1, 2, 3, 4},
	).Set(
		NewTime("only_zeros_1"),
		[]float64{0, 0, 0, 0},
	).Set(
		NewChangepoint("after_training", ChangepointCompSlope),
		[]float64{0, 0, 0, 0},
	)

	s.RemoveZeroOnlyFeatures()

	vals, exists := s.Get(NewTime("valid"))
	assert.True(t, exists)
	assert.Equal(t, []float64{1, 2, 3, 4}, vals)

	_, exists = s.Get(NewTime("only_zeros_1"))
	assert.False(t, exists)

	_, exists = s.Get(NewChangepoint("after_training", ChangepointCompSlope))
	assert.False(t, exists)
	assert.Equal(t, 1, s.Len())
}

func TestLabels(t *testing.T) {
	l := NewLabels([]Feature{
		Intercept(),
		NewChangepoint("auto_01", ChangepointCompSlope),
		NewSeasonality("epoch_yearly", FourierCompCos, 1),
	})
	assert.Equal(t, 3, l.Len())

	idx, exists := l.Index(NewSeasonality("epoch_yearly", FourierCompCos, 1))
	assert.True(t, exists)
	assert.Equal(t, 2, idx)

	idx, exists = l.Index(Linear())
	assert.False(t, exists)
	assert.Equal(t, -1, idx)

	assert.Equal(t, []Feature{NewChangepoint("auto_01", ChangepointCompSlope)}, l.OfType(FeatureTypeChangepoint))

	var nilLabels *Labels
	assert.Equal(t, 0, nilLabels.Len())
	assert.Nil(t, nilLabels.Labels())
}
