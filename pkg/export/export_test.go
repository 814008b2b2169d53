package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timetableDataset() Dataset {
	return Dataset{
		Title:   "2026-F option 1",
		Headers: []string{"day", "start", "end", "course"},
		Rows: [][]string{
			{"MON", "9:00", "10:20", "CS101"},
			{"TUE", "13:00", "14:20", "CS201, lab"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(timetableDataset())
	require.NoError(t, err)

	assert.Equal(t, "day,start,end,course\nMON,9:00,10:20,CS101\nTUE,13:00,14:20,\"CS201, lab\"\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := timetableDataset()
	data.Rows = append(data.Rows, []string{"WED"})

	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(timetableDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestJSONExporterIndentsWithoutHTMLEscaping(t *testing.T) {
	out, err := NewJSONExporter().Render(map[string]interface{}{"name": "R&D <intro>", "terms": []int{1}})
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"name\": \"R&D <intro>\",\n  \"terms\": [\n    1\n  ]\n}", string(out))
}
