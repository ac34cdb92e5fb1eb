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
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Built-in field encodings:
//
//	text, bytes: [uvarint: len][bytes]
//	int32:       4 bytes, big endian
//	int64:       8 bytes, big endian
//	varint:      zig-zag varint
//	float64:     8 bytes, big endian IEEE 754 bits
//	bool:        1 byte (0=false, 1=true)
const (
	TypeText    = "text"
	TypeBytes   = "bytes"
	TypeInt32   = "int32"
	TypeInt64   = "int64"
	TypeVarInt  = "varint"
	TypeFloat64 = "float64"
	TypeBool    = "bool"
)

// Text is a UTF-8 string field ordered by its raw bytes.
type Text struct {
	b []byte
}

var _ Field = (*Text)(nil)

func NewText(s string) *Text {
	return &Text{b: []byte(s)}
}

func (t *Text) Set(s string) {
	t.b = append(t.b[:0], s...)
}

func (t *Text) Value() string {
	return string(t.b)
}

func (t *Text) TypeName() string { return TypeText }

func (t *Text) Encode(w io.Writer) error {
	return writeLengthPrefixed(w, t.b)
}

func (t *Text) Decode(r Reader) error {
	b, err := readLengthPrefixed(r, t.b)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	t.b = b
	return nil
}

func (t *Text) Compare(other Field) (int, error) {
	o, ok := other.(*Text)
	if !ok {
		return 0, incomparable(t, other)
	}
	return bytes.Compare(t.b, o.b), nil
}

func (t *Text) Hash() int32 {
	return int32(xxhash.Sum64(t.b))
}

func (t *Text) String() string {
	return string(t.b)
}

// Bytes is an opaque byte string field ordered lexicographically.
type Bytes struct {
	b []byte
}

var _ Field = (*Bytes)(nil)

func NewBytes(b []byte) *Bytes {
	return &Bytes{b: append([]byte(nil), b...)}
}

func (f *Bytes) Value() []byte { return f.b }

func (f *Bytes) TypeName() string { return TypeBytes }

func (f *Bytes) Encode(w io.Writer) error {
	return writeLengthPrefixed(w, f.b)
}

func (f *Bytes) Decode(r Reader) error {
	b, err := readLengthPrefixed(r, f.b)
	if err != nil {
		return fmt.Errorf("bytes: %w", err)
	}
	f.b = b
	return nil
}

func (f *Bytes) Compare(other Field) (int, error) {
	o, ok := other.(*Bytes)
	if !ok {
		return 0, incomparable(f, other)
	}
	return bytes.Compare(f.b, o.b), nil
}

func (f *Bytes) Hash() int32 {
	return int32(xxhash.Sum64(f.b))
}

func (f *Bytes) String() string {
	return fmt.Sprintf("%x", f.b)
}

// Int32 is a fixed-width signed 32-bit field. Its hash is its value, so
// every int32, including math.MinInt32, is a possible hash.
type Int32 struct {
	V int32
}

var _ Field = (*Int32)(nil)

func NewInt32(v int32) *Int32 { return &Int32{V: v} }

func (f *Int32) TypeName() string { return TypeInt32 }

func (f *Int32) Encode(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.V))
	_, err := w.Write(buf[:])
	return err
}

func (f *Int32) Decode(r Reader) error {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return fmt.Errorf("int32: %w", err)
	}
	f.V = int32(binary.BigEndian.Uint32(buf[:]))
	return nil
}

func (f *Int32) Compare(other Field) (int, error) {
	o, ok := other.(*Int32)
	if !ok {
		return 0, incomparable(f, other)
	}
	return cmp.Compare(f.V, o.V), nil
}

func (f *Int32) Hash() int32 { return f.V }

func (f *Int32) String() string { return strconv.FormatInt(int64(f.V), 10) }

// Int64 is a fixed-width signed 64-bit field.
type Int64 struct {
	V int64
}

var _ Field = (*Int64)(nil)

func NewInt64(v int64) *Int64 { return &Int64{V: v} }

func (f *Int64) TypeName() string { return TypeInt64 }

func (f *Int64) Encode(w io.Writer) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(f.V))
	_, err := w.Write(buf[:])
	return err
}

func (f *Int64) Decode(r Reader) error {
	var buf [8]byte
	if err := readFull(r, buf[:]); err != nil {
		return fmt.Errorf("int64: %w", err)
	}
	f.V = int64(binary.BigEndian.Uint64(buf[:]))
	return nil
}

func (f *Int64) Compare(other Field) (int, error) {
	o, ok := other.(*Int64)
	if !ok {
		return 0, incomparable(f, other)
	}
	return cmp.Compare(f.V, o.V), nil
}

func (f *Int64) Hash() int32 { return hash64(uint64(f.V)) }

func (f *Int64) String() string { return strconv.FormatInt(f.V, 10) }

// VarInt is a signed 64-bit field with a zig-zag varint encoding, compact
// for small magnitudes such as sequence numbers.
type VarInt struct {
	V int64
}

var _ Field = (*VarInt)(nil)

func NewVarInt(v int64) *VarInt { return &VarInt{V: v} }

func (f *VarInt) TypeName() string { return TypeVarInt }

func (f *VarInt) Encode(w io.Writer) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], f.V)
	_, err := w.Write(buf[:n])
	return err
}

func (f *VarInt) Decode(r Reader) error {
	v, err := binary.ReadVarint(r)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("varint: %w", err)
	}
	f.V = v
	return nil
}

func (f *VarInt) Compare(other Field) (int, error) {
	o, ok := other.(*VarInt)
	if !ok {
		return 0, incomparable(f, other)
	}
	return cmp.Compare(f.V, o.V), nil
}

func (f *VarInt) Hash() int32 { return hash64(uint64(f.V)) }

func (f *VarInt) String() string { return strconv.FormatInt(f.V, 10) }

// Float64 is a fixed-width IEEE 754 field. NaN sorts before every other
// value and equals itself, which keeps the order total.
type Float64 struct {
	V float64
}

var _ Field = (*Float64)(nil)

func NewFloat64(v float64) *Float64 { return &Float64{V: v} }

func (f *Float64) TypeName() string { return TypeFloat64 }

func (f *Float64) Encode(w io.Writer) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f.V))
	_, err := w.Write(buf[:])
	return err
}

func (f *Float64) Decode(r Reader) error {
	var buf [8]byte
	if err := readFull(r, buf[:]); err != nil {
		return fmt.Errorf("float64: %w", err)
	}
	f.V = math.Float64frombits(binary.BigEndian.Uint64(buf[:]))
	return nil
}

func (f *Float64) Compare(other Field) (int, error) {
	o, ok := other.(*Float64)
	if !ok {
		return 0, incomparable(f, other)
	}
	return cmp.Compare(f.V, o.V), nil
}

// Hash canonicalizes NaN and negative zero so values that compare equal
// hash equally.
func (f *Float64) Hash() int32 {
	v := f.V
	switch {
	case math.IsNaN(v):
		v = math.NaN()
	case v == 0:
		v = 0
	}
	return hash64(math.Float64bits(v))
}

func (f *Float64) String() string { return strconv.FormatFloat(f.V, 'g', -1, 64) }

// Bool is a one-byte field; false sorts before true.
type Bool struct {
	V bool
}

var _ Field = (*Bool)(nil)

func NewBool(v bool) *Bool { return &Bool{V: v} }

func (f *Bool) TypeName() string { return TypeBool }

func (f *Bool) Encode(w io.Writer) error {
	var b byte
	if f.V {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func (f *Bool) Decode(r Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("bool: %w", err)
	}
	switch b {
	case 0:
		f.V = false
	case 1:
		f.V = true
	default:
		return fmt.Errorf("bool: invalid byte 0x%02x", b)
	}
	return nil
}

func (f *Bool) Compare(other Field) (int, error) {
	o, ok := other.(*Bool)
	if !ok {
		return 0, incomparable(f, other)
	}
	switch {
	case f.V == o.V:
		return 0, nil
	case !f.V:
		return -1, nil
	default:
		return 1, nil
	}
}

func (f *Bool) Hash() int32 {
	if f.V {
		return 1231
	}
	return 1237
}

func (f *Bool) String() string { return strconv.FormatBool(f.V) }

// hash64 folds a 64-bit value into 32 bits by xor-ing its halves.
func hash64(v uint64) int32 {
	return int32(v ^ (v >> 32))
}

func writeLengthPrefixed(w io.Writer, b []byte) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(b)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readLengthPrefixed reads a uvarint length and that many bytes into dst,
// growing dst only when its capacity is too small.
func readLengthPrefixed(r Reader, dst []byte) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return dst, fmt.Errorf("read length: %w", err)
	}
	if n > maxFieldLength {
		return dst, fmt.Errorf("length %d exceeds limit %d", n, maxFieldLength)
	}
	if left, ok := remaining(r); ok && n > uint64(left) {
		return dst, fmt.Errorf("length %d exceeds %d remaining bytes: %w", n, left, io.ErrUnexpectedEOF)
	}
	size := int(n)
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]
	if err := readFull(r, dst); err != nil {
		return dst, fmt.Errorf("read %d bytes: %w", size, err)
	}
	return dst, nil
}
