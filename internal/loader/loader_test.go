package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"

	"tsprep/internal/dataset"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("data.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "in.csv", []byte("date,temp,label\n2024-01-01 00:00:00,1.5,ok\n2024-01-01 00:02:00,2.5,bad\n"))

	tbl, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "temp", "label"}, tbl.Columns())
	require.Equal(t, 2, tbl.RowCount())

	f, ok := tbl.Value(0, "temp").Float()
	require.True(t, ok)
	assert.Equal(t, 1.5, f)
	assert.Equal(t, dataset.KindText, tbl.Value(0, "label").Kind())
}

func TestLoadCSVStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)
	path := writeFile(t, "bom.csv", data)

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
}

func TestLoadCSVKoreanEncoding(t *testing.T) {
	utf8Content := "날짜,값\n2024-01-01,1\n"
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(utf8Content))
	require.NoError(t, err)
	path := writeFile(t, "kr.csv", encoded)

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"날짜", "값"}, tbl.Columns())
}

func TestLoadCSVUndecodableBytes(t *testing.T) {
	path := writeFile(t, "bad.csv", []byte{0xff, 0xfe, 0x00, 0x81, 0x00})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither valid UTF-8 nor a Korean codepage")
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}

func TestMixedColumnStaysText(t *testing.T) {
	path := writeFile(t, "mixed.csv", []byte("v\n1\nabc\n"))

	tbl, err := Load(path)
	require.NoError(t, err)

	// One textual cell keeps the whole column textual.
	assert.Equal(t, dataset.KindText, tbl.Value(0, "v").Kind())
	assert.Equal(t, dataset.KindText, tbl.Value(1, "v").Kind())
}

func TestEmptyCellsBecomeNull(t *testing.T) {
	path := writeFile(t, "nulls.csv", []byte("a,b\n1,\n,2\n"))

	tbl, err := Load(path)
	require.NoError(t, err)

	assert.True(t, tbl.Value(0, "b").IsNull())
	assert.True(t, tbl.Value(1, "a").IsNull())
	f, ok := tbl.Value(1, "b").Float()
	require.True(t, ok)
	assert.Equal(t, 2.0, f)
}

func TestRaggedRowsPadWithNull(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("a,b,c\n1,2\n"))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.True(t, tbl.Value(0, "c").IsNull())
}

func TestLoadExcel(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"date", "temp"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2024-01-01 00:00:00", 1.25}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2024-01-01 00:02:00", 2.75}))

	path := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "temp"}, tbl.Columns())
	require.Equal(t, 2, tbl.RowCount())
	v, ok := tbl.Value(1, "temp").Float()
	require.True(t, ok)
	assert.Equal(t, 2.75, v)
}
