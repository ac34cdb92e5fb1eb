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

package compositekey

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawComparator_MatchesDecodedPolicies(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)
	keys := generateKeys(50, 3)
	for _, p := range []Policy{Natural, Reverse, Grouping} {
		t.Run(p.Name(), func(t *testing.T) {
			raw := mustComparator(t, binding, p)
			for _, a := range keys {
				for _, b := range keys {
					expected, err := p.CompareKeys(a, b)
					require.NoError(t, err)
					got, err := raw.Compare(mustEncode(t, a), mustEncode(t, b))
					require.NoError(t, err)
					assert.Equal(t, expected, got, "%v vs %v", a, b)
				}
			}
		})
	}
}

func TestRawComparator_CompareBytesWithOffsets(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)
	raw := mustComparator(t, binding, Natural)

	a := mustEncode(t, textIntKey("A", 2))
	b := mustEncode(t, textIntKey("A", 1))
	// both keys share one transport buffer, surrounded by unrelated bytes
	buf := append([]byte{0xde, 0xad}, a...)
	buf = append(buf, 0xbe)
	offB := len(buf)
	buf = append(buf, b...)
	buf = append(buf, 0xef)

	c, err := raw.CompareBytes(buf, 2, len(a), buf, offB, len(b))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = raw.CompareBytes(buf, offB, len(b), buf, 2, len(a))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestRawComparator_Idempotent(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)
	raw := mustComparator(t, binding, Reverse)
	a := mustEncode(t, textIntKey("A", 1))
	b := mustEncode(t, textIntKey("A", 2))
	for range 3 {
		c, err := raw.Compare(a, b)
		require.NoError(t, err)
		assert.Equal(t, 1, c)
	}
}

func TestRawComparator_DecodeErrors(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)
	raw := mustComparator(t, binding, Natural)
	good := mustEncode(t, textIntKey("A", 1))

	tests := []struct {
		name       string
		buf        []byte
		off, len   int
		wantUnwrap error
	}{
		{"truncated sort key", good[:len(good)-1], 0, len(good) - 1, io.ErrUnexpectedEOF},
		{"empty range", good, 0, 0, io.ErrUnexpectedEOF},
		{"length prefix past range", []byte{0x09, 'A'}, 0, 2, io.ErrUnexpectedEOF},
		{"range past buffer", good, 1, len(good), nil},
		{"negative offset", good, -1, 2, nil},
		{"trailing bytes", append(append([]byte{}, good...), 0x00), 0, len(good) + 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := raw.CompareBytes(tt.buf, tt.off, tt.len, good, 0, len(good))
			require.Error(t, err)
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "want DecodeError, got %T", err)
			assert.Equal(t, tt.off, decodeErr.Offset)
			if tt.wantUnwrap != nil {
				assert.True(t, errors.Is(err, tt.wantUnwrap), "got %v", err)
			}

			// the second operand is checked as well
			_, err = raw.CompareBytes(good, 0, len(good), tt.buf, tt.off, tt.len)
			require.True(t, errors.As(err, &decodeErr))
		})
	}
}

func TestRawComparator_RequiresConfiguration(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)

	_, err := NewRawComparator(nil, Natural)
	var cfgErr ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NewRawComparator(binding, nil)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRawComparator_PrivateScratchKeys(t *testing.T) {
	binding := mustBinding(t, TypeText, TypeInt32)
	c1 := mustComparator(t, binding, Natural)
	c2 := mustComparator(t, binding, Natural)
	assert.NotSame(t, c1.key1, c2.key1)
	assert.NotSame(t, c1.key1.Group, c1.key2.Group)
	assert.Equal(t, Natural, c1.Policy())
}
