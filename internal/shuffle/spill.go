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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	fxcbor "github.com/fxamacker/cbor/v2"

	"github.com/cardinalhq/secsort/internal/cbor"
)

// SpillRun is a sorted run of records written to a temp file.
type SpillRun struct {
	Name      string
	Path      string
	Partition int
	Count     int
	codec     *cbor.Config
}

// writeRun writes sorted records to a new file in dir and returns the run.
// The file is removed again if writing fails.
func writeRun(codec *cbor.Config, dir, name string, partition int, records []Record) (run *SpillRun, err error) {
	f, err := os.CreateTemp(dir, "secsort-run-"+name+"-*.cbor")
	if err != nil {
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	enc := codec.NewEncoder(w)
	for i := range records {
		if err = enc.Encode(records[i]); err != nil {
			return nil, fmt.Errorf("failed to encode record %d of run %s: %w", i, name, err)
		}
	}
	if err = w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush run %s: %w", name, err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close run %s: %w", name, err)
	}

	return &SpillRun{
		Name:      name,
		Path:      f.Name(),
		Partition: partition,
		Count:     len(records),
		codec:     codec,
	}, nil
}

// Open returns a reader over the run. Batches hold at most batchSize records.
func (r *SpillRun) Open(batchSize int) (*RunReader, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run %s: %w", r.Name, err)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &RunReader{
		run:       r,
		file:      f,
		decoder:   r.codec.NewDecoder(bufio.NewReader(f)),
		batchSize: batchSize,
	}, nil
}

// Remove deletes the run's file. Removing a missing file is not an error.
func (r *SpillRun) Remove() error {
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove run %s: %w", r.Name, err)
	}
	return nil
}

// RunReader reads a spill run back sequentially.
type RunReader struct {
	run       *SpillRun
	file      *os.File
	decoder   *fxcbor.Decoder
	batchSize int
	read      int
	closed    bool
}

var _ RecordReader = (*RunReader)(nil)

// Next returns the next batch of records, or io.EOF at the end of the run.
func (r *RunReader) Next(ctx context.Context) ([]Record, error) {
	if r.closed {
		return nil, errors.New("run reader is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]Record, 0, min(r.batchSize, r.run.Count-r.read))
	for len(batch) < r.batchSize {
		var rec Record
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode record %d of run %s: %w", r.read, r.run.Name, err)
		}
		batch = append(batch, rec)
		r.read++
	}

	if len(batch) == 0 {
		if r.read != r.run.Count {
			return nil, fmt.Errorf("run %s ended after %d of %d records: %w", r.run.Name, r.read, r.run.Count, io.ErrUnexpectedEOF)
		}
		return nil, io.EOF
	}
	return batch, nil
}

// Close closes the underlying file. The run itself stays on disk until
// SpillRun.Remove is called.
func (r *RunReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
