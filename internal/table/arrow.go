package table

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ToArrow converts the table to an Arrow table. Text columns become utf8
// arrays and numeric columns become float64 arrays. The caller must call
// Release on the returned table.
func (t *Table) ToArrow() (arrow.Table, error) {
	fields := make([]arrow.Field, len(t.schema))
	for i, c := range t.schema {
		switch c.Type {
		case TypeNumeric:
			fields[i] = arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64}
		default:
			fields[i] = arrow.Field{Name: c.Name, Type: arrow.BinaryTypes.String}
		}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.DefaultAllocator
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.schema {
			switch c.Type {
			case TypeNumeric:
				builder.Field(j).(*array.Float64Builder).Append(t.cells[i][j].(float64))
			default:
				builder.Field(j).(*array.StringBuilder).Append(t.cells[i][j].(string))
			}
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

// WriteParquet writes the table to w as a Parquet file with snappy
// compression.
func (t *Table) WriteParquet(w io.Writer) error {
	at, err := t.ToArrow()
	if err != nil {
		return fmt.Errorf("failed to build arrow table: %w", err)
	}
	defer at.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(at.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.WriteTable(at, at.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}

	return writer.Close()
}
