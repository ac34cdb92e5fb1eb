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
package shuffle

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

// Options control how records are partitioned, sorted, spilled and merged.
type Options struct {
	// NumPartitions is the number of reduce partitions.
	NumPartitions int
	// SortPolicy orders records within a partition. Usually
	// compositekey.Natural or compositekey.Reverse.
	SortPolicy compositekey.Policy
	// SpillThreshold is the number of buffered records per partition
	// that triggers a sorted spill to disk.
	SpillThreshold int
	// TempDir holds spill files. Empty means os.TempDir().
	TempDir string
	// BatchSize is the number of records moved per merge step.
	BatchSize int
	// Workers bounds how many partitions are reduced at once.
	Workers int
}

// DefaultOptions returns options with natural ordering and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		NumPartitions:  4,
		SortPolicy:     compositekey.Natural,
		SpillThreshold: 10000,
		BatchSize:      1000,
		Workers:        runtime.GOMAXPROCS(0),
	}
}

// Validate checks the options before any record is accepted.
func (o Options) Validate() error {
	var errs []error
	if o.NumPartitions <= 0 {
		errs = append(errs, compositekey.InvalidPartitionCountError{NumPartitions: o.NumPartitions})
	}
	if o.SortPolicy == nil {
		errs = append(errs, compositekey.ConfigurationError{Reason: "sort policy is required"})
	}
	if o.SpillThreshold <= 0 {
		errs = append(errs, fmt.Errorf("spill threshold must be positive, got %d", o.SpillThreshold))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", o.BatchSize))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", o.Workers))
	}
	return errors.Join(errs...)
}
