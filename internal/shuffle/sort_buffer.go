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
	"slices"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

// SortBuffer accumulates the map output of one partition until it is
// sorted and either spilled or handed to the merge.
type SortBuffer struct {
	records []Record
}

// NewSortBuffer creates a buffer with room for capacity records.
func NewSortBuffer(capacity int) *SortBuffer {
	return &SortBuffer{records: make([]Record, 0, capacity)}
}

// Add appends a record. The buffer keeps the slices it is given.
func (b *SortBuffer) Add(rec Record) {
	b.records = append(b.records, rec)
}

// Len returns the number of buffered records.
func (b *SortBuffer) Len() int {
	return len(b.records)
}

// Records returns the buffered records in their current order.
func (b *SortBuffer) Records() []Record {
	return b.records
}

// Reset empties the buffer and drops references to the records.
func (b *SortBuffer) Reset() {
	clear(b.records)
	b.records = b.records[:0]
}

// Sort orders the buffer with cmp. Records with equal keys keep their
// insertion order. If a key fails to decode the first error is returned
// and the order of the buffer is unspecified.
func (b *SortBuffer) Sort(cmp *compositekey.RawComparator) error {
	return sortRecords(b.records, cmp)
}

func sortRecords(records []Record, cmp *compositekey.RawComparator) error {
	var sortErr error
	slices.SortStableFunc(records, func(a, b Record) int {
		if sortErr != nil {
			return 0
		}
		c, err := cmp.Compare(a.Key, b.Key)
		if err != nil {
			sortErr = err
			return 0
		}
		return c
	})
	return sortErr
}
