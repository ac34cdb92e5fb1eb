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
)

// Reader is the cursor a Field decodes from. Variable-length encodings
// need single-byte reads for their length prefix.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Field is one component of a composite key. Implementations must write a
// self-delimiting encoding, since a Key concatenates two Fields with no
// separator.
type Field interface {
	// TypeName returns the identifier this type is registered under.
	TypeName() string

	// Encode writes the field's encoding to w.
	Encode(w io.Writer) error

	// Decode replaces the field's value with one read from r, reusing
	// any storage the field already holds.
	Decode(r Reader) error

	// Compare returns -1, 0 or 1. Comparing fields of different concrete
	// types returns an IncomparableTypeError.
	Compare(other Field) (int, error)

	// Hash must be deterministic and equal for fields that compare equal.
	Hash() int32

	String() string
}

// maxFieldLength caps a length prefix read from untrusted bytes.
const maxFieldLength = 1 << 30

// readFull reads exactly len(buf) bytes. Running out of input inside a
// field is always a truncation, even when nothing was read.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// remaining reports how many bytes are left in r, if r can tell.
func remaining(r io.Reader) (int, bool) {
	if lr, ok := r.(interface{ Len() int }); ok {
		return lr.Len(), true
	}
	return 0, false
}

func incomparable(left, right Field) error {
	rightName := "<nil>"
	if right != nil {
		rightName = right.TypeName()
	}
	return IncomparableTypeError{Left: left.TypeName(), Right: rightName}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
