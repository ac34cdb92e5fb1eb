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
// Package shuffle is an in-process shuffle for composite keys. Records are
// routed to partitions by group key, sorted within each partition by a sort
// policy, spilled to disk in sorted runs when a partition grows large, and
// merged back and split into groups for reduction.
package shuffle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/secsort/internal/cbor"
	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/idgen"
	"github.com/cardinalhq/secsort/internal/logctx"
)

// Reducer receives every group of every partition. Groups of one
// partition arrive in order from a single goroutine, but different
// partitions may be reduced concurrently.
type Reducer interface {
	Reduce(ctx context.Context, group *Group) error
}

// ReducerFunc adapts a function to Reducer.
type ReducerFunc func(ctx context.Context, group *Group) error

func (f ReducerFunc) Reduce(ctx context.Context, group *Group) error {
	return f(ctx, group)
}

// Shuffle is the map and reduce side of one job. Emit is single producer.
type Shuffle struct {
	binding     *compositekey.Binding
	opts        Options
	codec       *cbor.Config
	partitioner *compositekey.KeyPartitioner
	sorter      *compositekey.RawComparator
	runNames    *idgen.ULIDGenerator

	buffers []*SortBuffer
	runs    [][]*SpillRun
	emitted int64
	ran     bool
	closed  bool
}

// NewShuffle validates opts against binding and returns an empty shuffle.
func NewShuffle(binding *compositekey.Binding, opts Options) (*Shuffle, error) {
	if binding == nil {
		return nil, compositekey.ConfigurationError{Reason: "key binding is required"}
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shuffle options: %w", err)
	}

	codec, err := cbor.NewConfig()
	if err != nil {
		return nil, err
	}
	partitioner, err := compositekey.NewKeyPartitioner(binding)
	if err != nil {
		return nil, err
	}
	sorter, err := compositekey.NewRawComparator(binding, opts.SortPolicy)
	if err != nil {
		return nil, err
	}

	buffers := make([]*SortBuffer, opts.NumPartitions)
	for i := range buffers {
		buffers[i] = NewSortBuffer(0)
	}

	return &Shuffle{
		binding:     binding,
		opts:        opts,
		codec:       codec,
		partitioner: partitioner,
		sorter:      sorter,
		runNames:    idgen.NewULIDGenerator(),
		buffers:     buffers,
		runs:        make([][]*SpillRun, opts.NumPartitions),
	}, nil
}

func (s *Shuffle) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	if s.ran {
		return ErrAlreadyRun
	}
	return nil
}

// Emit serializes key and routes the record by its group key.
func (s *Shuffle) Emit(ctx context.Context, key *compositekey.Key, value []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.binding.Matches(key) {
		return compositekey.ConfigurationError{
			Reason: fmt.Sprintf("key %v does not match %v", key, s.binding),
		}
	}
	keyBytes, err := key.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}
	partition, err := s.partitioner.PartitionKey(key, s.opts.NumPartitions)
	if err != nil {
		return err
	}
	return s.add(ctx, partition, Record{Key: keyBytes, Value: bytes.Clone(value)})
}

// EmitRaw routes an already serialized key. The key must decode with the
// shuffle's binding. Both slices are copied.
func (s *Shuffle) EmitRaw(ctx context.Context, key, value []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	partition, err := s.partitioner.PartitionBytes(key, s.opts.NumPartitions)
	if err != nil {
		return err
	}
	return s.add(ctx, partition, Record{Key: bytes.Clone(key), Value: bytes.Clone(value)})
}

func (s *Shuffle) add(ctx context.Context, partition int, rec Record) error {
	if rec.Value == nil {
		rec.Value = []byte{}
	}
	buf := s.buffers[partition]
	buf.Add(rec)
	s.emitted++
	recordsEmittedCounter.Add(ctx, 1)

	if buf.Len() >= s.opts.SpillThreshold {
		return s.spill(ctx, partition)
	}
	return nil
}

// spill sorts a partition's buffer and writes it out as a run.
func (s *Shuffle) spill(ctx context.Context, partition int) error {
	buf := s.buffers[partition]
	if err := buf.Sort(s.sorter); err != nil {
		return fmt.Errorf("failed to sort partition %d: %w", partition, err)
	}

	name := s.runNames.Make(time.Now())
	run, err := writeRun(s.codec, s.opts.TempDir, name, partition, buf.Records())
	if err != nil {
		return err
	}
	s.runs[partition] = append(s.runs[partition], run)
	buf.Reset()

	runsSpilledCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.Int("partition", partition),
	))
	logctx.FromContext(ctx).Debug("Spilled sorted run",
		slog.Int("partition", partition),
		slog.String("run", run.Name),
		slog.Int("records", run.Count))
	return nil
}

// Emitted returns the number of records accepted so far.
func (s *Shuffle) Emitted() int64 {
	return s.emitted
}

// Spilled returns the number of runs written to disk so far.
func (s *Shuffle) Spilled() int {
	n := 0
	for _, runs := range s.runs {
		n += len(runs)
	}
	return n
}

// Run reduces every non-empty partition. Partitions are processed by at
// most Options.Workers goroutines, each with its own comparators. The first
// error cancels the remaining partitions. Run may only be called once.
func (s *Shuffle) Run(ctx context.Context, reducer Reducer) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if reducer == nil {
		return errors.New("reducer is required")
	}
	s.ran = true

	ll := logctx.FromContext(ctx)
	ll.Info("Starting reduce",
		slog.Int("partitions", s.opts.NumPartitions),
		slog.Int("workers", s.opts.Workers),
		slog.Int64("records", s.emitted),
		slog.Int("spilledRuns", s.Spilled()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for partition := range s.opts.NumPartitions {
		if s.buffers[partition].Len() == 0 && len(s.runs[partition]) == 0 {
			continue
		}
		g.Go(func() error {
			if err := s.reducePartition(gctx, partition, reducer); err != nil {
				return fmt.Errorf("partition %d: %w", partition, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Shuffle) reducePartition(ctx context.Context, partition int, reducer Reducer) (err error) {
	ctx = logctx.WithAttrs(ctx, slog.Int("partition", partition))
	ll := logctx.FromContext(ctx)

	cmp, err := compositekey.NewRawComparator(s.binding, s.opts.SortPolicy)
	if err != nil {
		return err
	}

	tail := s.buffers[partition]
	if err := tail.Sort(cmp); err != nil {
		return fmt.Errorf("failed to sort in-memory records: %w", err)
	}

	readers := make([]RecordReader, 0, len(s.runs[partition])+1)
	for _, run := range s.runs[partition] {
		rr, err := run.Open(s.opts.BatchSize)
		if err != nil {
			for _, r := range readers {
				_ = r.Close()
			}
			return err
		}
		readers = append(readers, rr)
	}
	// The in-memory tail was emitted last, so it merges after the runs.
	readers = append(readers, newSliceReader(tail.Records(), s.opts.BatchSize))

	merged, err := NewMergeReader(ctx, readers, cmp, s.opts.BatchSize)
	if err != nil {
		return err
	}
	groups, err := NewGroupReader(merged, s.binding, partition)
	if err != nil {
		_ = merged.Close()
		return err
	}
	defer func() {
		if closeErr := groups.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var groupCount, recordCount int64
	attrs := otelmetric.WithAttributes(attribute.Int("partition", partition))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		group, err := groups.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := reducer.Reduce(ctx, group); err != nil {
			return fmt.Errorf("reduce %v: %w", group.Key, err)
		}
		groupCount++
		recordCount += int64(len(group.Records))
		groupsReducedCounter.Add(ctx, 1, attrs)
		recordsReducedCounter.Add(ctx, int64(len(group.Records)), attrs)
	}

	ll.Debug("Reduced partition",
		slog.Int64("groups", groupCount),
		slog.Int64("records", recordCount))
	return nil
}

// Close removes every spill file. It is safe to call more than once.
func (s *Shuffle) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var result *multierror.Error
	for partition, runs := range s.runs {
		for _, run := range runs {
			if err := run.Remove(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		s.runs[partition] = nil
		s.buffers[partition].Reset()
	}
	return result.ErrorOrNil()
}
