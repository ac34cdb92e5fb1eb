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
	"encoding"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ParseField sets f from its text form, the inverse of f.String() for the
// built-in types. Custom fields opt in by implementing
// encoding.TextUnmarshaler.
func ParseField(f Field, s string) error {
	u, ok := f.(encoding.TextUnmarshaler)
	if !ok {
		return fmt.Errorf("%s fields cannot be parsed from text", typeNameOf(f))
	}
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("parse %s %q: %w", typeNameOf(f), s, err)
	}
	return nil
}

func typeNameOf(f Field) string {
	if f == nil {
		return "<nil>"
	}
	return f.TypeName()
}

func (t *Text) UnmarshalText(b []byte) error {
	t.b = append(t.b[:0], b...)
	return nil
}

// UnmarshalText decodes hex, matching String.
func (f *Bytes) UnmarshalText(b []byte) error {
	v := make([]byte, hex.DecodedLen(len(b)))
	if _, err := hex.Decode(v, b); err != nil {
		return err
	}
	f.b = v
	return nil
}

func (f *Int32) UnmarshalText(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 32)
	if err != nil {
		return err
	}
	f.V = int32(v)
	return nil
}

func (f *Int64) UnmarshalText(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	f.V = v
	return nil
}

func (f *VarInt) UnmarshalText(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	f.V = v
	return nil
}

func (f *Float64) UnmarshalText(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	f.V = v
	return nil
}

func (f *Bool) UnmarshalText(b []byte) error {
	v, err := strconv.ParseBool(string(b))
	if err != nil {
		return err
	}
	f.V = v
	return nil
}
