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
	"fmt"
)

// RawComparator compares serialized keys without the caller decoding
// them. It decodes each range into one of two private scratch keys and
// hands the pair to a Policy.
//
// A RawComparator is NOT safe for concurrent use; build one per worker.
type RawComparator struct {
	binding *Binding
	policy  Policy
	key1    *Key
	key2    *Key
	cursor  bytes.Reader
}

// NewRawComparator builds a comparator for keys of the bound types.
func NewRawComparator(binding *Binding, policy Policy) (*RawComparator, error) {
	if binding == nil {
		return nil, ConfigurationError{Reason: "raw comparator requires a type binding"}
	}
	if policy == nil {
		return nil, ConfigurationError{Reason: "raw comparator requires a comparison policy"}
	}
	return &RawComparator{
		binding: binding,
		policy:  policy,
		key1:    binding.NewKey(),
		key2:    binding.NewKey(),
	}, nil
}

// Policy returns the policy this comparator delegates to.
func (c *RawComparator) Policy() Policy {
	return c.policy
}

// CompareBytes compares b1[s1:s1+l1] with b2[s2:s2+l2]. Any decode
// failure is returned as a *DecodeError and no ordering is reported.
func (c *RawComparator) CompareBytes(b1 []byte, s1, l1 int, b2 []byte, s2, l2 int) (int, error) {
	if err := c.decode(c.key1, b1, s1, l1); err != nil {
		return 0, err
	}
	if err := c.decode(c.key2, b2, s2, l2); err != nil {
		return 0, err
	}
	return c.policy.CompareKeys(c.key1, c.key2)
}

// Compare compares two whole encoded keys.
func (c *RawComparator) Compare(a, b []byte) (int, error) {
	return c.CompareBytes(a, 0, len(a), b, 0, len(b))
}

// CompareKeys applies the policy to two already decoded keys.
func (c *RawComparator) CompareKeys(a, b *Key) (int, error) {
	return c.policy.CompareKeys(a, b)
}

func (c *RawComparator) decode(dst *Key, buf []byte, off, length int) error {
	if off < 0 || length < 0 || off > len(buf) || length > len(buf)-off {
		return &DecodeError{
			Offset: off,
			Length: length,
			Err:    fmt.Errorf("range out of bounds for buffer of %d bytes", len(buf)),
		}
	}
	c.cursor.Reset(buf[off : off+length])
	if err := dst.Decode(&c.cursor); err != nil {
		return &DecodeError{Offset: off, Length: length, Err: err}
	}
	if left := c.cursor.Len(); left != 0 {
		return &DecodeError{Offset: off, Length: length, Err: fmt.Errorf("%d trailing bytes", left)}
	}
	return nil
}
