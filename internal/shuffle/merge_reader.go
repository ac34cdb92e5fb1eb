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
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

// mergeState tracks one input of the merge.
type mergeState struct {
	reader RecordReader
	batch  []Record
	pos    int
	done   bool
	index  int
}

func (s *mergeState) current() *Record {
	if s.done || s.pos >= len(s.batch) {
		return nil
	}
	return &s.batch[s.pos]
}

// MergeReader merges pre-sorted readers into one sorted stream. Every
// input must already be ordered by the same policy as cmp.
type MergeReader struct {
	states    []*mergeState
	cmp       *compositekey.RawComparator
	batchSize int
	rowCount  int64
	closed    bool
}

var _ RecordReader = (*MergeReader)(nil)

// NewMergeReader primes every reader and returns the merge. On failure all
// readers are closed. Ties between inputs go to the reader with the lower
// index, so a merge of stable runs stays stable.
func NewMergeReader(ctx context.Context, readers []RecordReader, cmp *compositekey.RawComparator, batchSize int) (*MergeReader, error) {
	if len(readers) == 0 {
		return nil, errors.New("at least one reader is required")
	}
	if cmp == nil {
		return nil, errors.New("comparator is required")
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	states := make([]*mergeState, len(readers))
	for i, reader := range readers {
		states[i] = &mergeState{reader: reader, index: i}
	}

	mr := &MergeReader{
		states:    states,
		cmp:       cmp,
		batchSize: batchSize,
	}
	for _, state := range mr.states {
		if err := mr.fill(ctx, state); err != nil {
			_ = mr.Close()
			return nil, fmt.Errorf("failed to prime reader %d: %w", state.index, err)
		}
	}
	return mr, nil
}

// fill loads the next batch once the current one is consumed.
func (mr *MergeReader) fill(ctx context.Context, state *mergeState) error {
	for !state.done && state.pos >= len(state.batch) {
		batch, err := state.reader.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				state.done = true
				state.batch = nil
				return nil
			}
			return err
		}
		state.batch = batch
		state.pos = 0
	}
	return nil
}

// Next returns up to batchSize records in merged order, or io.EOF.
// A comparison error aborts the merge.
func (mr *MergeReader) Next(ctx context.Context) ([]Record, error) {
	if mr.closed {
		return nil, errors.New("reader is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Record, 0, mr.batchSize)
	for len(out) < mr.batchSize {
		var selected *mergeState
		var minRec *Record
		for _, state := range mr.states {
			rec := state.current()
			if rec == nil {
				continue
			}
			if minRec == nil {
				selected, minRec = state, rec
				continue
			}
			c, err := mr.cmp.Compare(rec.Key, minRec.Key)
			if err != nil {
				return nil, fmt.Errorf("failed to compare reader %d with reader %d: %w", state.index, selected.index, err)
			}
			if c < 0 {
				selected, minRec = state, rec
			}
		}

		if selected == nil {
			break
		}

		out = append(out, *minRec)
		selected.pos++
		if err := mr.fill(ctx, selected); err != nil {
			return nil, fmt.Errorf("failed to advance reader %d: %w", selected.index, err)
		}
	}

	if len(out) == 0 {
		return nil, io.EOF
	}
	mr.rowCount += int64(len(out))
	recordsMergedCounter.Add(ctx, int64(len(out)), otelmetric.WithAttributes(
		attribute.String("reader", "MergeReader"),
	))
	return out, nil
}

// RowCount returns the number of records returned so far.
func (mr *MergeReader) RowCount() int64 {
	return mr.rowCount
}

// Close closes every input reader.
func (mr *MergeReader) Close() error {
	if mr.closed {
		return nil
	}
	mr.closed = true

	var errs []error
	for _, state := range mr.states {
		if err := state.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close reader %d: %w", state.index, err))
		}
		state.batch = nil
	}
	return errors.Join(errs...)
}
