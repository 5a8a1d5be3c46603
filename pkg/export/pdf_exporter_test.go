package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterRendersCard(t *testing.T) {
	out, err := NewPDFExporter().Render(Card{
		Title:  "Qualification Card",
		Fields: [][2]string{{"Employee", "Ana Lima"}, {"Number", "E-100"}},
		Table: Dataset{
			Headers: []string{"Skill", "Level"},
			Rows:    []map[string]string{{"Skill": "WI-1", "Level": "L3"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Card{Title: "x"})
	require.Error(t, err)
}
