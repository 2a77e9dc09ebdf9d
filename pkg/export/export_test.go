package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nightplan/core/model"
	"github.com/kilianp07/nightplan/core/schedule"
)

func markedSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	sch := schedule.New("2024-03-01")
	v, err := sch.AddVariant("Clear")
	require.NoError(t, err)
	obs := &model.Obs{ID: "GS-1", Steps: model.Steps{StepTimes: []int64{60_000}}}
	a, err := v.AddAlloc(obs, 0, 0, 0, schedule.SetupNone)
	require.NoError(t, err)
	mm := sch.MarkerManager()
	mm.Add(false, "EmptyIctd", schedule.SeverityWarning, "no ictd", sch.Scope())
	mm.Add(true, "Setup", schedule.SeverityError, "Full setup required, \"first\".", schedule.AllocTarget(a))
	mm.Add(false, "EmptyVariant", schedule.SeverityInfo, "Variant is empty.", schedule.VariantTarget(v))
	return sch
}

func TestRows(t *testing.T) {
	rows := Rows(markedSchedule(t))
	require.Len(t, rows, 3)
	assert.Equal(t, "Error", rows[0].Severity)
	assert.Equal(t, "alloc", rows[0].Kind)
	assert.Equal(t, "GS-1 S1", rows[0].Target)
	assert.Equal(t, "Clear", rows[0].Variant)
	assert.True(t, rows[0].Ephemeral)
	assert.Equal(t, "Warning", rows[1].Severity)
	assert.Empty(t, rows[1].Variant)
	assert.Equal(t, "Info", rows[2].Severity)
	assert.Equal(t, "2024-03-01", rows[2].Schedule)
}

func TestWriteJSON(t *testing.T) {
	rows := Rows(markedSchedule(t))
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rows))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "Setup", out[0]["source"])
	_, hasVariant := out[1]["variant"]
	assert.False(t, hasVariant)
}

func TestWriteCSV(t *testing.T) {
	rows := Rows(markedSchedule(t))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "schedule", recs[0][0])
	assert.Equal(t, "Full setup required, \"first\".", recs[1][6])
	assert.Equal(t, "true", recs[1][7])
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, "Markers", Rows(markedSchedule(t))))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "EmptyVariant")
	assert.Contains(t, html, "3 markers")
}
