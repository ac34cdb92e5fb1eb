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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField_RoundTripsString(t *testing.T) {
	tests := []struct {
		typeName string
		input    string
	}{
		{TypeText, "service-a"},
		{TypeText, ""},
		{TypeBytes, "00ff10"},
		{TypeInt32, "-2147483648"},
		{TypeInt64, "9223372036854775807"},
		{TypeVarInt, "-42"},
		{TypeFloat64, "3.25"},
		{TypeBool, "true"},
	}
	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.typeName+"/"+tt.input, func(t *testing.T) {
			factory, err := reg.lookup("test", tt.typeName)
			require.NoError(t, err)
			f := factory()
			require.NoError(t, ParseField(f, tt.input))
			assert.Equal(t, tt.input, f.String())
		})
	}
}

func TestParseField_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		input string
	}{
		{"int32 overflow", &Int32{}, "2147483648"},
		{"int64 garbage", &Int64{}, "ten"},
		{"bool garbage", &Bool{}, "maybe"},
		{"odd hex", &Bytes{}, "abc"},
		{"float garbage", &Float64{}, "1.2.3"},
		{"nil field", nil, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ParseField(tt.field, tt.input))
		})
	}
}

func TestParseField_FailureKeepsValue(t *testing.T) {
	b := NewBytes([]byte{0xab, 0xcd})
	require.Error(t, ParseField(b, "12zz"))
	assert.Equal(t, []byte{0xab, 0xcd}, b.Value())

	i := NewInt32(7)
	require.Error(t, ParseField(i, "x"))
	assert.Equal(t, int32(7), i.V)
}
