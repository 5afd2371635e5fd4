package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tsprep/internal/dataset"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New([]string{"date", "temp", "note"})
	require.NoError(t, err)
	ts := time.Date(2024, 1, 1, 0, 2, 0, 0, time.UTC)
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Timestamp(ts), dataset.Number(1.5), dataset.Text("ok")}))
	require.NoError(t, tbl.AppendRow([]dataset.Value{dataset.Timestamp(ts.Add(2 * time.Minute)), dataset.Null(), dataset.Text("gap")}))
	return tbl
}

func TestExportCSVWritesBOMAndHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	path, err := Export(sampleTable(t), Options{OutputPath: out, DateColumn: "date"})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(raw), "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,temp,note", lines[0])
	assert.Equal(t, "2024-01-01 00:02:00,1.5,ok", lines[1])
	// Null cells render empty.
	assert.Equal(t, "2024-01-01 00:04:00,,gap", lines[2])
}

func TestExportCustomDateFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	_, err := Export(sampleTable(t), Options{
		OutputPath: out,
		DateColumn: "date",
		DateFormat: "2006/01/02 15:04",
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2024/01/01 00:02")
}

func TestExportCreatesDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "deep", "out.csv")
	_, err := Export(sampleTable(t), Options{OutputPath: out})
	require.NoError(t, err)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestExportExcel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := Export(sampleTable(t), Options{OutputPath: out, DateColumn: "date"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "temp", "note"}, rows[0])
	assert.Equal(t, "2024-01-01 00:02:00", rows[1][0])
	assert.Equal(t, "1.5", rows[1][1])
}

func TestSynthesizePath(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

	got := synthesizePath(filepath.Join("data", "input.csv"), now)
	assert.Equal(t, filepath.Join("data", "input_processed_20240304_050607.csv"), got)

	got = synthesizePath("", now)
	assert.Equal(t, "processed_data_20240304_050607.csv", got)

	got = synthesizePath("book.xlsx", now)
	assert.Equal(t, "book_processed_20240304_050607.xlsx", got)
}
