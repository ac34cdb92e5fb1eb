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

// Package cbor provides the CBOR encoding used for shuffle spill files.
//
// A spill file is a plain sequence of CBOR items, one per record. Each
// record is a two-element array [key, value] of byte strings. Keys are the
// composite key's own encoding, so they stay opaque here and are only ever
// interpreted by a raw comparator.
package cbor

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Record is the on-disk shape of one shuffled record.
type Record struct {
	_     struct{} `cbor:",toarray"`
	Key   []byte
	Value []byte
}

// Config holds CBOR encoder and decoder modes for spill records.
type Config struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// NewConfig creates the spill record configuration.
func NewConfig() (*Config, error) {
	encMode, err := cbor.EncOptions{
		Sort:          cbor.SortNone,
		ShortestFloat: cbor.ShortestFloatNone,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	decMode, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	return &Config{
		encMode: encMode,
		decMode: decMode,
	}, nil
}

// NewEncoder creates a streaming encoder that writes records to w.
func (c *Config) NewEncoder(w io.Writer) *cbor.Encoder {
	return c.encMode.NewEncoder(w)
}

// NewDecoder creates a streaming decoder that reads records from r.
func (c *Config) NewDecoder(r io.Reader) *cbor.Decoder {
	return c.decMode.NewDecoder(r)
}

// Marshal encodes a single record.
func (c *Config) Marshal(rec Record) ([]byte, error) {
	return c.encMode.Marshal(rec)
}

// Unmarshal decodes a single record. Trailing bytes are an error.
func (c *Config) Unmarshal(data []byte) (Record, error) {
	var rec Record
	if err := c.decMode.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UnmarshalFirst decodes the first record in data and returns the bytes
// that follow it.
func (c *Config) UnmarshalFirst(data []byte) (Record, []byte, error) {
	var rec Record
	rest, err := c.decMode.UnmarshalFirst(data, &rec)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, rest, nil
}
