package export

import (
	"fmt"
	"io"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRow struct {
	Date string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TSS  float64 `parquet:"name=tss, type=DOUBLE"`
	CTL  float64 `parquet:"name=ctl, type=DOUBLE"`
	ATL  float64 `parquet:"name=atl, type=DOUBLE"`
	TSB  float64 `parquet:"name=tsb, type=DOUBLE"`
}

// WriteParquet encodes rows as a snappy-compressed parquet file
func WriteParquet(w io.Writer, rows []Row) error {
	data, err := marshalParquet(rows)
	if err != nil {
		return fmt.Errorf("encoding parquet: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func marshalParquet(rows []Row) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		row := parquetRow{
			Date: r.Date.Format("2006-01-02"),
			TSS:  r.TSS,
			CTL:  r.CTL,
			ATL:  r.ATL,
			TSB:  r.TSB,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// ReadParquet decodes a file written by WriteParquet
func ReadParquet(data []byte) ([]Row, error) {
	fr := parquetbuffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(fr, new(parquetRow), 1)
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	raw := make([]parquetRow, n)
	if n > 0 {
		if err := pr.Read(&raw); err != nil {
			return nil, fmt.Errorf("reading parquet rows: %w", err)
		}
	}

	rows := make([]Row, 0, n)
	for _, r := range raw {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", r.Date, err)
		}
		rows = append(rows, Row{Date: date, TSS: r.TSS, CTL: r.CTL, ATL: r.ATL, TSB: r.TSB})
	}
	return rows, nil
}
