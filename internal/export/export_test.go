package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainload/internal/analysis"
)

func sampleRows() []Row {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return FromTrend([]analysis.FitnessMetrics{
		{Date: day, TSS: 50, CTL: 32, ATL: 34, TSB: -2},
		{Date: day.AddDate(0, 0, 1), TSS: 0, CTL: 31.5, ATL: 29, TSB: 2.5},
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,tss,ctl,atl,tsb", lines[0])
	assert.Equal(t, "2024-03-01,50,32,34,-2", lines[1])
	assert.Equal(t, "2024-03-02,0,31.5,29,2.5", lines[2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, nil))
	assert.Equal(t, "date,tss,ctl,atl,tsb\n", buf.String())
}

func TestParquetRoundTrip(t *testing.T) {
	rows := sampleRows()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatParquet, rows))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))

	got, err := ReadParquet(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), sampleRows()))
}
