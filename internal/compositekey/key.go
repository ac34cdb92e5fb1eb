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
	"errors"
	"fmt"
	"io"
)

// Key is a composite key: Group decides the partition and the reduction
// group, Sort orders records within a group.
//
// The encoding is Group's encoding immediately followed by Sort's, with no
// separator. Both components must be non-nil before a Key is encoded,
// decoded or compared.
type Key struct {
	Group Field
	Sort  Field
}

// New returns a Key holding the given components.
func New(group, sort Field) *Key {
	return &Key{Group: group, Sort: sort}
}

var errNilComponent = errors.New("composite key has a nil component")

func (k *Key) check() error {
	if k == nil || k.Group == nil || k.Sort == nil {
		return errNilComponent
	}
	return nil
}

// Encode writes the group key, then the sort key.
func (k *Key) Encode(w io.Writer) error {
	if err := k.check(); err != nil {
		return err
	}
	if err := k.Group.Encode(w); err != nil {
		return fmt.Errorf("encode group key: %w", err)
	}
	if err := k.Sort.Encode(w); err != nil {
		return fmt.Errorf("encode sort key: %w", err)
	}
	return nil
}

// Decode reads the group key, then the sort key, into the components the
// Key already holds.
func (k *Key) Decode(r Reader) error {
	if err := k.check(); err != nil {
		return err
	}
	if err := k.Group.Decode(r); err != nil {
		return fmt.Errorf("decode group key: %w", err)
	}
	if err := k.Sort.Decode(r); err != nil {
		return fmt.Errorf("decode sort key: %w", err)
	}
	return nil
}

// MarshalBinary returns the Key's encoding.
func (k *Key) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := k.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data into the Key's existing components. The
// whole of data must be consumed.
func (k *Key) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	if err := k.Decode(r); err != nil {
		return &DecodeError{Offset: 0, Length: len(data), Err: err}
	}
	if r.Len() != 0 {
		return &DecodeError{Offset: 0, Length: len(data), Err: fmt.Errorf("%d trailing bytes", r.Len())}
	}
	return nil
}

// Compare orders by group key, then by sort key.
func (k *Key) Compare(other *Key) (int, error) {
	if err := k.check(); err != nil {
		return 0, err
	}
	if err := other.check(); err != nil {
		return 0, err
	}
	c, err := k.Group.Compare(other.Group)
	if err != nil {
		return 0, fmt.Errorf("compare group keys: %w", err)
	}
	if c != 0 {
		return sign(c), nil
	}
	c, err = k.Sort.Compare(other.Sort)
	if err != nil {
		return 0, fmt.Errorf("compare sort keys: %w", err)
	}
	return sign(c), nil
}

// Equal reports whether both components are equal. Keys with mismatched
// component types are never equal.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	c, err := k.Compare(other)
	return err == nil && c == 0
}

// Hash combines both components. Partitioning never uses it; see
// Partition, which hashes the group key alone.
func (k *Key) Hash() int32 {
	const prime = 31
	result := int32(1)
	var g, s int32
	if k.Group != nil {
		g = k.Group.Hash()
	}
	if k.Sort != nil {
		s = k.Sort.Hash()
	}
	result = prime*result + g
	result = prime*result + s
	return result
}

// Clone returns an independent copy with fresh components built by
// binding, populated by an encode/decode round trip.
func (k *Key) Clone(binding *Binding) (*Key, error) {
	data, err := k.MarshalBinary()
	if err != nil {
		return nil, err
	}
	c := binding.NewKey()
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return c, nil
}

// String is for diagnostics only.
func (k *Key) String() string {
	if k == nil {
		return "Key<nil>"
	}
	return fmt.Sprintf("Key[%v, %v]", k.Group, k.Sort)
}
