package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

// DefaultPhoneColumn is the zero-based column holding the phone number
// in a Google Forms export (timestamp, name, email, phone).
const DefaultPhoneColumn = 3

// ReadEntries extracts raw phone entries from a delimited form export.
// The first row is a header and is always skipped. Rows with fewer
// columns than required still produce an entry, with an empty raw
// value, so the normalizer can reject them instead of the row vanishing
// silently. Row numbers are 1-based and count the header.
func ReadEntries(path string, phoneColumn int) ([]domain.RawEntry, error) {
	if phoneColumn < 0 {
		return nil, fmt.Errorf("phone column must be non-negative, got %d", phoneColumn)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open responses file: %w", err)
	}
	defer f.Close()

	return readEntries(f, phoneColumn)
}

func readEntries(r io.Reader, phoneColumn int) ([]domain.RawEntry, error) {
	reader := csv.NewReader(r)
	// Form exports are ragged in practice; short rows are handled per
	// entry, not as a read error.
	reader.FieldsPerRecord = -1

	var entries []domain.RawEntry
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if row == 1 {
			continue // header
		}

		raw := ""
		if len(record) > phoneColumn {
			raw = strings.TrimSpace(record[phoneColumn])
		}
		entries = append(entries, domain.RawEntry{Raw: raw, Row: row})
	}
	return entries, nil
}
