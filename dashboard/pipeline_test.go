package dashboard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/clock"
	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/aouyang1/go-inflation-forecaster/worldbank"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu          sync.Mutex
	series      observation.Series
	err         error
	calls       int
	invalidated int
}

func (s *stubSource) Fetch(ctx context.Context) (observation.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.series.Copy(), nil
}

func (s *stubSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
}

func (s *stubSource) Invalidated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func twoPointSeries() observation.Series {
	return observation.Series{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 21.8},
		{Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Value: 21.9},
	}
}

func generateSeries(n int) observation.Series {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	t := timedataset.GenerateMonthlyT(n, start)
	y := timedataset.GenerateConstY(n, 11.0).
		Add(timedataset.GenerateLinearY(n, 0.2)).
		Add(timedataset.GenerateWaveY(t, 0.7, 365.25*24*3600, 1.0, 0)).
		Add(timedataset.GenerateNoise(n, 0.1, 3))

	s := make(observation.Series, 0, n)
	for i := range t {
		s = append(s, observation.Observation{Date: t[i], Value: y[i]})
	}
	return s
}

func TestRecomputeTwoPoints(t *testing.T) {
	src := &stubSource{series: twoPointSeries()}
	p := NewPipeline(src)

	v, err := p.Recompute(context.Background(), Inputs{Horizon: 3})
	require.Nil(t, err)

	require.Len(t, v.Table, 3)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), v.Table[0].Date)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), v.Table[1].Date)
	assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), v.Table[2].Date)
	for _, row := range v.Table {
		assert.Less(t, row.Lower, row.Forecast)
		assert.Greater(t, row.Upper, row.Forecast)
	}
	assert.InDelta(t, 21.8+0.1*59.0/31.0, v.Table[0].Forecast, 1e-6)

	assert.Equal(t, 2, v.History.Len())
	assert.Equal(t, 2, v.RawTail.Len())
	assert.Equal(t, 5, v.Results.Len())
	assert.False(t, v.ManualApplied)
}

func TestRecomputeHorizons(t *testing.T) {
	series := generateSeries(48)
	last, _ := series.Last()
	p := NewPipeline(&stubSource{series: series})

	for n := 3; n <= 36; n++ {
		v, err := p.Recompute(context.Background(), Inputs{Horizon: n})
		require.Nil(t, err)
		require.Len(t, v.Table, n)
		assert.Equal(t, 1, timedataset.MonthsBetween(last.Date, v.Table[0].Date))
		for i, row := range v.Table {
			assert.LessOrEqual(t, row.Lower, row.Forecast)
			assert.LessOrEqual(t, row.Forecast, row.Upper)
			if i > 0 {
				assert.Equal(t, 1, timedataset.MonthsBetween(v.Table[i-1].Date, row.Date))
			}
		}
	}

	v, err := p.Recompute(context.Background(), Inputs{Horizon: 3})
	require.Nil(t, err)
	require.Equal(t, RawTailRows, v.RawTail.Len())
	assert.Equal(t, last, v.RawTail[RawTailRows-1])
}

func TestRecomputeManualEntry(t *testing.T) {
	src := &stubSource{series: twoPointSeries()}
	mockClock := clock.NewMockClock(time.Date(2023, 4, 17, 9, 30, 0, 0, time.UTC))
	p := NewPipeline(src, WithPipelineClock(mockClock))

	testData := map[string]struct {
		in         Inputs
		historyLen int
		applied    bool
		lastValue  float64
	}{
		"disabled": {
			in:         Inputs{Horizon: 3, ManualValue: 30},
			historyLen: 2,
			lastValue:  21.9,
		},
		"enabled": {
			in:         Inputs{Horizon: 3, ManualEnabled: true, ManualValue: 22.4},
			historyLen: 3,
			applied:    true,
			lastValue:  22.4,
		},
		"clamped": {
			in:         Inputs{Horizon: 3, ManualEnabled: true, ManualValue: 250},
			historyLen: 3,
			applied:    true,
			lastValue:  100,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			v, err := p.Recompute(context.Background(), td.in)
			require.Nil(t, err)
			assert.Equal(t, td.historyLen, v.History.Len())
			assert.Equal(t, td.applied, v.ManualApplied)

			last, ok := v.History.Last()
			require.True(t, ok)
			assert.Equal(t, td.lastValue, last.Value)
			if td.applied {
				assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), last.Date)
				assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), v.Table[0].Date)
			}
		})
	}
}

func TestRecomputeManualEntryExistingMonth(t *testing.T) {
	src := &stubSource{series: twoPointSeries()}
	mockClock := clock.NewMockClock(time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC))
	p := NewPipeline(src, WithPipelineClock(mockClock))

	v, err := p.Recompute(context.Background(), Inputs{Horizon: 3, ManualEnabled: true, ManualValue: 50})
	require.Nil(t, err)
	assert.False(t, v.ManualApplied)
	assert.Equal(t, 2, v.History.Len())

	last, _ := v.History.Last()
	assert.Equal(t, 21.9, last.Value)
}

func TestRecomputeMemo(t *testing.T) {
	src := &stubSource{series: generateSeries(36)}
	m := NewMetrics()
	p := NewPipeline(src, WithPipelineMetrics(m), WithMaxMemo(2))

	v1, err := p.Recompute(context.Background(), Inputs{Horizon: 6})
	require.Nil(t, err)
	v2, err := p.Recompute(context.Background(), Inputs{Horizon: 6})
	require.Nil(t, err)

	// fetches are not memoised by the pipeline, fits are
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, 1, p.MemoLen())
	assert.Same(t, v1.Results, v2.Results)
	assert.Equal(t, v1.Table, v2.Table)

	_, err = p.Recompute(context.Background(), Inputs{Horizon: 7})
	require.Nil(t, err)
	assert.Equal(t, 2, p.MemoLen())

	// memo is cleared once full
	_, err = p.Recompute(context.Background(), Inputs{Horizon: 8})
	require.Nil(t, err)
	assert.Equal(t, 1, p.MemoLen())

	assert.Equal(t, uint64(4), recomputeCount(t, m))
}

func recomputeCount(t *testing.T, m *Metrics) uint64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.Nil(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "inflation_dashboard_recompute_duration_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestRecomputeErrors(t *testing.T) {
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		src       *stubSource
		err       error
		status    int
		fitErrors float64
	}{
		"network": {
			src:    &stubSource{err: fmt.Errorf("%w, connection refused", worldbank.ErrNetwork)},
			err:    worldbank.ErrNetwork,
			status: 502,
		},
		"data format": {
			src:    &stubSource{err: fmt.Errorf("%w, unexpected payload", worldbank.ErrDataFormat)},
			err:    worldbank.ErrDataFormat,
			status: 500,
		},
		"too few points": {
			src:       &stubSource{series: observation.Series{{Date: jan, Value: 10}}},
			status:    500,
			fitErrors: 1,
		},
		"non finite": {
			src: &stubSource{series: observation.Series{
				{Date: jan, Value: 10},
				{Date: jan.AddDate(0, 1, 0), Value: math.Inf(1)},
			}},
			status:    500,
			fitErrors: 1,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m := NewMetrics()
			p := NewPipeline(td.src, WithPipelineMetrics(m))

			v, err := p.Recompute(context.Background(), Inputs{Horizon: 3})
			require.NotNil(t, err)
			assert.Nil(t, v)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
			}
			assert.Equal(t, td.status, StatusCode(err))
			assert.Equal(t, td.fitErrors, testutil.ToFloat64(m.FitErrors))
		})
	}
}

func TestRecomputeCachedSource(t *testing.T) {
	src := &stubSource{series: generateSeries(24)}
	mockClock := clock.NewMockClock(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	m := NewMetrics()
	cache := worldbank.NewCachedSource(m.InstrumentSource(src), time.Hour, worldbank.WithClock(mockClock))
	m.RegisterCache(cache)
	p := NewPipeline(cache, WithPipelineClock(mockClock))

	v, err := p.Recompute(context.Background(), Inputs{Horizon: 3})
	require.Nil(t, err)
	assert.Equal(t, mockClock.Now(), v.FetchedAt)

	_, err = p.Recompute(context.Background(), Inputs{Horizon: 4})
	require.Nil(t, err)
	assert.Equal(t, 1, src.Calls())

	hits, misses := cache.GetMetrics()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues(FetchResultSuccess)))
}
