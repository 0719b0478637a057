package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPerYear_FreezingDays(t *testing.T) {
	obs := []DailyObservation{
		{Date: day(2000, 1, 1), Tmin: 31},
		{Date: day(2000, 1, 2), Tmin: 32},
		{Date: day(2000, 1, 3), Tmin: 33},
		{Date: day(2000, 1, 4), Tmin: 10},
		{Date: day(2000, 1, 5), Tmin: Missing},
		{Date: day(2001, 7, 1), Tmin: 70},
	}

	got := CountPerYear(obs, FreezingDays(32))

	assert.Equal(t, "freezing_days", got.Metric)
	assert.Equal(t, Series{{Year: 2000, Value: 3}, {Year: 2001, Value: 0}}, got.Points)
}

func TestPredicates(t *testing.T) {
	hot := HotDays(100)
	assert.True(t, hot.Match(DailyObservation{Tmax: 100}))
	assert.False(t, hot.Match(DailyObservation{Tmax: 99.9}))
	assert.False(t, hot.Match(DailyObservation{Tmax: Missing}))

	heavy := HeavyPrecipDays(1)
	assert.Equal(t, Prcp, heavy.Variable)
	assert.True(t, heavy.Match(DailyObservation{Prcp: 1.2}))
}

func TestMaxPerYear(t *testing.T) {
	obs := []DailyObservation{
		{Date: day(2000, 7, 1), Tmax: 95},
		{Date: day(2000, 7, 2), Tmax: 101},
		{Date: day(2001, 7, 1), Tmax: Missing},
	}

	got := MaxPerYear("hottest_day", obs, Tmax)

	require.Len(t, got.Points, 2)
	assert.InDelta(t, 101.0, got.Points[0].Value, 0)
	assert.True(t, IsMissing(got.Points[1].Value))
}

func TestExtremeSeries_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(ExtremeSeries{Metric: "hot_days"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"metric":"hot_days","points":[]}`, string(data))
}
