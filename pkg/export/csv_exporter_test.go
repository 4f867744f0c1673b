package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	data := Dataset{
		Headers: []string{"Learner", "Term", "Rating"},
		Rows: []map[string]string{
			{"Learner": "Amina", "Term": "1", "Rating": "EE1"},
			{"Learner": "Brian", "Term": "1", "Rating": "ME2"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Learner,Term,Rating")
	assert.Contains(t, string(out), "Amina,1,EE1")
}

func TestCSVExporterSpreadsheetFraming(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Learner"},
		Rows:    []map[string]string{{"Learner": "Njeri"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM), "export should open with a UTF-8 BOM")
	assert.True(t, strings.HasSuffix(string(out), "\r\n"), "rows should end with CRLF")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
