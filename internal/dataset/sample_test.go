package dataset

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SampleSensorTable builds a deterministic two-hour sensor table on a
// two-minute grid with a handful of injected outliers, shared by tests
// across the repo that need realistic telemetry.
func SampleSensorTable(t *testing.T, rows int) *Table {
	t.Helper()
	tbl, err := New([]string{"date", "AMBIENT_TEMP", "FAN_CURRENT", "GEARBOX_OIL_TEMP"})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		ambient := 20 + 2*math.Sin(float64(i)/10)
		fan := 5 + 0.1*float64(i%7)
		oil := 55 + 0.5*math.Cos(float64(i)/5)

		// Injected spikes at fixed offsets.
		switch i {
		case 13:
			ambient = 120
		case 29:
			fan = -40
		case 41:
			oil = 300
		}

		row := []Value{
			Timestamp(start.Add(time.Duration(i) * 2 * time.Minute)),
			Number(ambient),
			Number(fan),
			Number(oil),
		}
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestSampleSensorTableIsDeterministic(t *testing.T) {
	a := SampleSensorTable(t, 60)
	b := SampleSensorTable(t, 60)

	require.Equal(t, a.RowCount(), b.RowCount())
	for i := 0; i < a.RowCount(); i++ {
		assert.Equal(t, fmt.Sprint(a.Row(i)), fmt.Sprint(b.Row(i)))
	}
}

func TestSampleSensorTableDetection(t *testing.T) {
	tbl := SampleSensorTable(t, 60)

	det := Detect(tbl)
	assert.Equal(t, "date", det.DateColumn)
	assert.True(t, det.DateParsed)
	assert.Equal(t, []string{"AMBIENT_TEMP", "FAN_CURRENT", "GEARBOX_OIL_TEMP"}, det.NumericColumns)
}

func TestSampleSensorTableSpikesAreExtremes(t *testing.T) {
	tbl := SampleSensorTable(t, 60)

	stats, ok := Stats(tbl, "AMBIENT_TEMP")
	require.True(t, ok)
	assert.Equal(t, float64(120), stats.Max)

	stats, ok = Stats(tbl, "FAN_CURRENT")
	require.True(t, ok)
	assert.Equal(t, float64(-40), stats.Min)
}
