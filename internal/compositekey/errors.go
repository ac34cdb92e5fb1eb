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

import "fmt"

// ConfigurationError is returned when key types are missing, unknown or
// registered inconsistently, or when a comparison policy cannot be resolved.
// It is fatal to the job: there is no safe default.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "composite key configuration: " + e.Reason
}

// InvalidPartitionCountError is returned when a partition is requested
// with numPartitions <= 0.
type InvalidPartitionCountError struct {
	NumPartitions int
}

func (e InvalidPartitionCountError) Error() string {
	return fmt.Sprintf("invalid partition count %d: must be greater than zero", e.NumPartitions)
}

// DecodeError is returned when a serialized key range is truncated,
// malformed or out of bounds. A sort must not continue past it.
type DecodeError struct {
	Offset int
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode composite key at offset %d length %d: %v", e.Offset, e.Length, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IncomparableTypeError is returned when two key components of different
// concrete types are compared.
type IncomparableTypeError struct {
	Left  string
	Right string
}

func (e IncomparableTypeError) Error() string {
	return fmt.Sprintf("cannot compare %s with %s", e.Left, e.Right)
}
