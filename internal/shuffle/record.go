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
package shuffle

import (
	"context"
	"io"

	"github.com/cardinalhq/secsort/internal/cbor"
)

// Record is one shuffled key/value pair. Key holds a serialized
// composite key.
type Record = cbor.Record

// RecordReader yields records in batches. Next returns io.EOF once the
// reader is exhausted.
type RecordReader interface {
	Next(ctx context.Context) ([]Record, error)
	Close() error
}

// sliceReader serves an already sorted in-memory slice.
type sliceReader struct {
	records   []Record
	pos       int
	batchSize int
}

func newSliceReader(records []Record, batchSize int) *sliceReader {
	return &sliceReader{records: records, batchSize: batchSize}
}

func (r *sliceReader) Next(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	end := min(r.pos+r.batchSize, len(r.records))
	batch := r.records[r.pos:end]
	r.pos = end
	return batch, nil
}

func (r *sliceReader) Close() error {
	r.records = nil
	return nil
}
