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

	"github.com/cardinalhq/secsort/internal/compositekey"
)

// Group is one reduction unit: every record of a partition that shares a
// group key, in sort order.
type Group struct {
	Partition int
	// Key is the decoded key of the first record in the group.
	Key     *compositekey.Key
	Records []Record
}

// Values returns the record values in order.
func (g *Group) Values() [][]byte {
	values := make([][]byte, len(g.Records))
	for i := range g.Records {
		values[i] = g.Records[i].Value
	}
	return values
}

// GroupReader splits a sorted record stream into groups. A new group
// starts exactly where the grouping comparison of two neighbouring keys
// is non-zero, so the sort key never splits a group.
type GroupReader struct {
	source    RecordReader
	grouping  *compositekey.RawComparator
	binding   *compositekey.Binding
	partition int
	pending   []Record
	pos       int
	eof       bool
	closed    bool
}

// NewGroupReader wraps source, which must be sorted by a policy that
// orders group keys ascending. The reader owns source and closes it.
func NewGroupReader(source RecordReader, binding *compositekey.Binding, partition int) (*GroupReader, error) {
	if source == nil {
		return nil, errors.New("source reader is required")
	}
	grouping, err := compositekey.NewRawComparator(binding, compositekey.Grouping)
	if err != nil {
		return nil, err
	}
	return &GroupReader{
		source:    source,
		grouping:  grouping,
		binding:   binding,
		partition: partition,
	}, nil
}

func (gr *GroupReader) peek(ctx context.Context) (*Record, error) {
	for gr.pos >= len(gr.pending) {
		if gr.eof {
			return nil, nil
		}
		batch, err := gr.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				gr.eof = true
				gr.pending = nil
				gr.pos = 0
				return nil, nil
			}
			return nil, err
		}
		gr.pending = batch
		gr.pos = 0
	}
	return &gr.pending[gr.pos], nil
}

// Next returns the next group, or io.EOF when the stream is exhausted.
func (gr *GroupReader) Next(ctx context.Context) (*Group, error) {
	if gr.closed {
		return nil, errors.New("group reader is closed")
	}

	first, err := gr.peek(ctx)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, io.EOF
	}

	key := gr.binding.NewKey()
	if err := key.UnmarshalBinary(first.Key); err != nil {
		return nil, fmt.Errorf("failed to decode group key in partition %d: %w", gr.partition, err)
	}

	group := &Group{Partition: gr.partition, Key: key, Records: []Record{*first}}
	gr.pos++

	for {
		rec, err := gr.peek(ctx)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		prev := group.Records[len(group.Records)-1].Key
		c, err := gr.grouping.Compare(prev, rec.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to compare keys in partition %d: %w", gr.partition, err)
		}
		if c != 0 {
			break
		}
		group.Records = append(group.Records, *rec)
		gr.pos++
	}
	return group, nil
}

// Close closes the source reader.
func (gr *GroupReader) Close() error {
	if gr.closed {
		return nil
	}
	gr.closed = true
	gr.pending = nil
	return gr.source.Close()
}
