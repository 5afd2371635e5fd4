package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"tsprep/internal/dataset"
)

// loadCSV reads a delimited text file, decoding with the fallback ladder
// UTF-8 → CP949 → EUC-KR. x/text ships one Korean codec covering both
// legacy rungs (EUC-KR extended to the unified CP949 table), so the two
// legacy attempts collapse into a single strict decode.
func loadCSV(path string) (*dataset.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	decoded, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no rows: %s", path)
	}

	return buildTable(records[0], records[1:])
}

// decodeText returns UTF-8 bytes for the input, trying UTF-8 first and the
// Korean codepage second. The first rung that decodes without error wins.
func decodeText(raw []byte) ([]byte, error) {
	raw = stripBOM(raw)
	if utf8.Valid(raw) {
		return raw, nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return decoded, nil
	}
	return nil, fmt.Errorf("text is neither valid UTF-8 nor a Korean codepage")
}

// stripBOM drops a leading UTF-8 byte-order mark, which our own exporter
// writes for spreadsheet compatibility.
func stripBOM(raw []byte) []byte {
	return bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
}
