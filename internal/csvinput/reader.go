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
// Package csvinput maps "group,sort,value" CSV lines to composite keys.
package csvinput

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

// Reader parses one record per CSV line. Lines starting with '#' are
// skipped. There is no header row.
type Reader struct {
	reader  *csv.Reader
	key     *compositekey.Key
	lineNum int
}

func NewReader(r io.Reader, binding *compositekey.Binding) *Reader {
	csvReader := csv.NewReader(r)
	csvReader.Comment = '#'
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = 3
	csvReader.ReuseRecord = true
	return &Reader{reader: csvReader, key: binding.NewKey()}
}

// Next returns the next key and value, or io.EOF. The key is reused by the
// following call; the value is freshly allocated.
func (r *Reader) Next() (*compositekey.Key, []byte, error) {
	record, err := r.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, io.EOF
		}
		return nil, nil, fmt.Errorf("CSV read error: %w", err)
	}
	line, _ := r.reader.FieldPos(0)
	r.lineNum = line

	if err := compositekey.ParseField(r.key.Group, record[0]); err != nil {
		return nil, nil, fmt.Errorf("line %d: group key: %w", line, err)
	}
	if err := compositekey.ParseField(r.key.Sort, record[1]); err != nil {
		return nil, nil, fmt.Errorf("line %d: sort key: %w", line, err)
	}
	return r.key, []byte(record[2]), nil
}

// Line returns the input line of the last record read.
func (r *Reader) Line() int {
	return r.lineNum
}
