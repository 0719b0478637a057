package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectGaps(t *testing.T) {
	obs := []DailyObservation{
		{Date: day(2000, 2, 27), Tmax: 50, Tmin: Missing, Prcp: 0},
		{Date: day(2000, 2, 28), Tmax: 50, Tmin: 30, Prcp: 0},
		// Feb 29 and Mar 1 absent.
		{Date: day(2000, 3, 2), Tmax: Missing, Tmin: Missing, Prcp: 0},
	}

	r := InspectGaps(obs)

	assert.Equal(t, 5, r.ExpectedDays)
	assert.Equal(t, 3, r.ObservedDays)
	assert.Equal(t, 2, r.MissingDays())
	assert.InDelta(t, 0.6, r.Completeness(), 1e-12)
	require.Len(t, r.DateGaps, 1)
	assert.Equal(t, DateGap{Start: day(2000, 2, 29), End: day(2000, 3, 1), Days: 2}, r.DateGaps[0])
	assert.Equal(t, map[Variable]int{Tmax: 1, Tmin: 2, Prcp: 0}, r.MissingValues)
}

func TestInspectGaps_Empty(t *testing.T) {
	r := InspectGaps(nil)
	assert.Zero(t, r.ExpectedDays)
	assert.Zero(t, r.Completeness())
	assert.Len(t, r.MissingValues, 3)
}

func TestDateGap_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DateGap{Start: day(2000, 2, 29), End: day(2000, 3, 1), Days: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2000-02-29","end":"2000-03-01","days":2}`, string(data))
}
