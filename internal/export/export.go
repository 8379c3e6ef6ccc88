package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trainload/internal/analysis"
)

// Format is an export file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts "csv" or "parquet" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected csv|parquet)", s)
	}
}

// Row is one exported day
type Row struct {
	Date time.Time
	TSS  float64
	CTL  float64
	ATL  float64
	TSB  float64
}

// Header is the column order of every export
var Header = []string{"date", "tss", "ctl", "atl", "tsb"}

// FromTrend converts per-day load metrics into export rows
func FromTrend(trend []analysis.FitnessMetrics) []Row {
	rows := make([]Row, len(trend))
	for i, m := range trend {
		rows[i] = Row{Date: m.Date, TSS: m.TSS, CTL: m.CTL, ATL: m.ATL, TSB: m.TSB}
	}
	return rows
}

// Write encodes rows in the given format
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatParquet:
		return WriteParquet(w, rows)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteCSV writes a header line and one record per row
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format("2006-01-02"),
			formatFloat(r.TSS),
			formatFloat(r.CTL),
			formatFloat(r.ATL),
			formatFloat(r.TSB),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
