package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterQuotesEveryField(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Employee Number", "Notes"},
		Rows: []map[string]string{
			{"Employee Number": "007", "Notes": `said "ok", signed`},
			{"Employee Number": "008"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "\"Employee Number\",\"Notes\"\n\"007\",\"said \"\"ok\"\", signed\"\n\"008\",\"\"\n", string(out))

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `said "ok", signed`, records[1][1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
