// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package output

import (
	"context"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

// OutputRow is the parquet schema of reduced records.
type OutputRow struct {
	Partition int32  `parquet:"partition"`
	Group     string `parquet:"group,dict"`
	Sort      string `parquet:"sort"`
	Value     []byte `parquet:"value"`
}

// ParquetSink writes reduced records as parquet rows.
type ParquetSink struct {
	writer  *parquet.GenericWriter[OutputRow]
	scratch *compositekey.Key
	rows    []OutputRow
	written int64
}

var _ Sink = (*ParquetSink)(nil)

func NewParquetSink(w io.Writer, binding *compositekey.Binding) *ParquetSink {
	writer := parquet.NewGenericWriter[OutputRow](w,
		parquet.Compression(&parquet.Zstd),
		parquet.MaxRowsPerRowGroup(80_000),
	)
	return &ParquetSink{writer: writer, scratch: binding.NewKey()}
}

func (s *ParquetSink) Name() string  { return "parquet" }
func (s *ParquetSink) RunLast() bool { return false }

func (s *ParquetSink) Reduce(_ context.Context, group *shuffle.Group) error {
	s.rows = s.rows[:0]
	for _, rec := range group.Records {
		if err := decodeRecordKey(s.scratch, rec); err != nil {
			return err
		}
		s.rows = append(s.rows, OutputRow{
			Partition: int32(group.Partition),
			Group:     s.scratch.Group.String(),
			Sort:      s.scratch.Sort.String(),
			Value:     rec.Value,
		})
	}
	n, err := s.writer.Write(s.rows)
	if err != nil {
		return err
	}
	if n != len(s.rows) {
		return fmt.Errorf("wrote %d of %d rows", n, len(s.rows))
	}
	s.written += int64(n)
	return nil
}

// Written returns the number of rows written so far.
func (s *ParquetSink) Written() int64 {
	return s.written
}

// Close writes the parquet footer. The underlying writer is left open.
func (s *ParquetSink) Close(context.Context) error {
	return s.writer.Close()
}
