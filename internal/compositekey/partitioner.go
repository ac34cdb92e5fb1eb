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
	"math"
)

// Partition maps a group key to a partition in [0, numPartitions). The
// sign bit of the hash is masked off before the modulo, so math.MinInt32
// and other negative hashes still land in range. The sort key never takes
// part, which keeps a whole group on one partition.
func Partition(group Field, numPartitions int) (int, error) {
	if numPartitions <= 0 {
		return 0, InvalidPartitionCountError{NumPartitions: numPartitions}
	}
	if group == nil {
		return 0, errors.New("partition: group key is nil")
	}
	return partitionOf(group.Hash(), numPartitions), nil
}

func partitionOf(hash int32, numPartitions int) int {
	return int(hash&math.MaxInt32) % numPartitions
}

// KeyPartitioner assigns partitions to whole keys and to serialized keys.
// It holds a scratch key for decoding and is NOT safe for concurrent use.
type KeyPartitioner struct {
	binding *Binding
	scratch *Key
	cursor  bytes.Reader
}

// NewKeyPartitioner builds a partitioner for keys of the bound types.
func NewKeyPartitioner(binding *Binding) (*KeyPartitioner, error) {
	if binding == nil {
		return nil, ConfigurationError{Reason: "partitioner requires a type binding"}
	}
	return &KeyPartitioner{
		binding: binding,
		scratch: binding.NewKey(),
	}, nil
}

// PartitionKey returns the partition for k, from its group key alone. k
// must carry the bound types.
func (p *KeyPartitioner) PartitionKey(k *Key, numPartitions int) (int, error) {
	if numPartitions <= 0 {
		return 0, InvalidPartitionCountError{NumPartitions: numPartitions}
	}
	if err := k.check(); err != nil {
		return 0, err
	}
	if !p.binding.Matches(k) {
		return 0, ConfigurationError{Reason: fmt.Sprintf("key %v does not match %v", k, p.binding)}
	}
	return Partition(k.Group, numPartitions)
}

// PartitionBytes decodes a serialized key and returns its partition. The
// whole key is decoded and validated even though only the group key is
// hashed.
func (p *KeyPartitioner) PartitionBytes(buf []byte, numPartitions int) (int, error) {
	if numPartitions <= 0 {
		return 0, InvalidPartitionCountError{NumPartitions: numPartitions}
	}
	p.cursor.Reset(buf)
	if err := p.scratch.Decode(&p.cursor); err != nil {
		return 0, &DecodeError{Offset: 0, Length: len(buf), Err: err}
	}
	if left := p.cursor.Len(); left != 0 {
		return 0, &DecodeError{Offset: 0, Length: len(buf), Err: errors.New("trailing bytes after key")}
	}
	return Partition(p.scratch.Group, numPartitions)
}
