package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "responses.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadEntriesSkipsHeaderAndReadsPhoneColumn(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"Timestamp,Name,Email,Phone number",
		`2024/01/02 10:00:00,Budi,budi@example.com,08123456789`,
		`2024/01/02 10:05:00,Sari,sari@example.com,+6281234567890`,
	}, "\n"))

	entries, err := ReadEntries(path, DefaultPhoneColumn)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RawEntry{Raw: "08123456789", Row: 2}, entries[0])
	assert.Equal(t, domain.RawEntry{Raw: "+6281234567890", Row: 3}, entries[1])
}

func TestReadEntriesShortRowsYieldEmptyRaw(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"Timestamp,Name,Email,Phone number",
		`2024/01/02 10:00:00,Budi`,
		`2024/01/02 10:05:00,Sari,sari@example.com,08123456789`,
	}, "\n"))

	entries, err := ReadEntries(path, DefaultPhoneColumn)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RawEntry{Raw: "", Row: 2}, entries[0])
	assert.Equal(t, domain.RawEntry{Raw: "08123456789", Row: 3}, entries[1])
}

func TestReadEntriesTrimsWhitespaceAndHandlesQuoting(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"Timestamp,Name,Email,Phone number",
		`2024/01/02 10:00:00,"Budi, Jr.",budi@example.com," 0812 345 6789 "`,
	}, "\n"))

	entries, err := ReadEntries(path, DefaultPhoneColumn)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0812 345 6789", entries[0].Raw)
}

func TestReadEntriesHeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, "Timestamp,Name,Email,Phone number\n")

	entries, err := ReadEntries(path, DefaultPhoneColumn)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEntriesMissingFile(t *testing.T) {
	_, err := ReadEntries(filepath.Join(t.TempDir(), "nope.csv"), DefaultPhoneColumn)
	assert.Error(t, err)
}

func TestReadEntriesRejectsNegativeColumn(t *testing.T) {
	_, err := ReadEntries("whatever.csv", -1)
	assert.Error(t, err)
}
