package tabular

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffname,employeeNumber,shift\n" +
		"Ana, E-1 ,DAY\n" +
		",,\n" +
		"Bo,E-2\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "E-1", rows[0].Get("employeeNumber"))
	assert.Equal(t, "DAY", rows[0].Get("shift"))

	assert.Equal(t, 3, rows[1].Index)
	assert.Equal(t, "Bo", rows[1].Get("name"))
	assert.Equal(t, "", rows[1].Get("shift"))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("code,name\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVKeepsReadingPastMalformedLine(t *testing.T) {
	input := "name,employeeNumber,dateHired\n" +
		"Ana,E1,2024-01-01\n" +
		"Bob,E2\"x,2024-01-01\n" +
		"Cid,E3,2024-01-01\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.NoError(t, rows[0].Err)
	assert.Equal(t, "Ana", rows[0].Get("name"))

	var parseErr *csv.ParseError
	require.ErrorAs(t, rows[1].Err, &parseErr)
	assert.Equal(t, 2, rows[1].Index)

	assert.NoError(t, rows[2].Err)
	assert.Equal(t, 3, rows[2].Index)
	assert.Equal(t, "E3", rows[2].Get("employeeNumber"))
}

func TestReadCSVIndexCountsEmptyLines(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("name,employeeNumber\n\nAna,E1\n,\nBob,E2\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, 4, rows[1].Index)
}
