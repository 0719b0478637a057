package synthetic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/couchcryptid/climate-trends-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOptions() Options {
	opts := DefaultOptions()
	opts.FromYear = 2000
	opts.ToYear = 2002
	return opts
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(smallOptions())
	b := Generate(smallOptions())

	if diff := cmp.Diff(a, b, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("same seed produced different records (-a +b):\n%s", diff)
	}
}

func TestGenerate_OrderedWithinBounds(t *testing.T) {
	obs := Generate(smallOptions())
	require.NotEmpty(t, obs)

	assert.Equal(t, 2000, obs[0].Year())
	assert.Equal(t, 2002, obs[len(obs)-1].Year())
	for i := 1; i < len(obs); i++ {
		assert.True(t, obs[i].Date.After(obs[i-1].Date), "row %d out of order", i)
	}
}

func TestGenerate_NoGaps(t *testing.T) {
	opts := smallOptions()
	opts.DropChance = 0
	opts.MissingChance = 0

	obs := Generate(opts)
	assert.Len(t, obs, 366+365+365)
	report := domain.InspectGaps(obs)
	assert.Empty(t, report.DateGaps)
	assert.Equal(t, 0, report.MissingValues[domain.Tmax])
}

func TestWriteCSV_RoundTripsThroughLoader(t *testing.T) {
	obs := Generate(smallOptions())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, "USW00000001", obs))
	assert.True(t, strings.HasPrefix(buf.String(), "STATION,DATE,PRCP,TMAX,TMIN\n"))

	loaded, stats, err := domain.LoadObservations(&buf, domain.DefaultLoadOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, len(obs), stats.RowsLoaded)
	if diff := cmp.Diff(obs, loaded, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("loaded record differs (-generated +loaded):\n%s", diff)
	}
}
