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
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

// textEscaper keeps each record on one line with exactly two tabs.
var textEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// TextSink writes one "group<TAB>sort<TAB>value" line per record.
// Backslash, tab, newline and carriage return inside a column are
// written as \\, \t, \n and \r.
type TextSink struct {
	w       *bufio.Writer
	scratch *compositekey.Key
}

var _ Sink = (*TextSink)(nil)

func NewTextSink(w io.Writer, binding *compositekey.Binding) *TextSink {
	return &TextSink{w: bufio.NewWriter(w), scratch: binding.NewKey()}
}

func (s *TextSink) Name() string  { return "text" }
func (s *TextSink) RunLast() bool { return false }

func (s *TextSink) Reduce(_ context.Context, group *shuffle.Group) error {
	for _, rec := range group.Records {
		if err := decodeRecordKey(s.scratch, rec); err != nil {
			return err
		}
		textEscaper.WriteString(s.w, s.scratch.Group.String())
		s.w.WriteByte('\t')
		textEscaper.WriteString(s.w, s.scratch.Sort.String())
		s.w.WriteByte('\t')
		textEscaper.WriteString(s.w, string(rec.Value))
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered output. The underlying writer is left open.
func (s *TextSink) Close(context.Context) error {
	return s.w.Flush()
}
