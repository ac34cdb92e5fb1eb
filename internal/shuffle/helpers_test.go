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
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

func testBinding(t testing.TB) *compositekey.Binding {
	t.Helper()
	binding, err := compositekey.Configure(compositekey.NewRegistry(), compositekey.TypeText, compositekey.TypeInt32)
	require.NoError(t, err)
	return binding
}

func testComparator(t testing.TB, policy compositekey.Policy) *compositekey.RawComparator {
	t.Helper()
	cmp, err := compositekey.NewRawComparator(testBinding(t), policy)
	require.NoError(t, err)
	return cmp
}

func key(group string, sort int32) *compositekey.Key {
	return compositekey.New(compositekey.NewText(group), compositekey.NewInt32(sort))
}

func rec(t testing.TB, group string, sort int32, value string) Record {
	t.Helper()
	data, err := key(group, sort).MarshalBinary()
	require.NoError(t, err)
	return Record{Key: data, Value: []byte(value)}
}

func values(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.Value)
	}
	return out
}

func drain(t testing.TB, r RecordReader) []Record {
	t.Helper()
	var out []Record
	for {
		batch, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, batch...)
	}
}

// trackingReader records whether it was closed.
type trackingReader struct {
	RecordReader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return r.RecordReader.Close()
}
