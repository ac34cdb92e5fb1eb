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
package output

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/cardinalhq/secsort/internal/logctx"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

// PartitionStats counts what one partition produced.
type PartitionStats struct {
	Groups  int64
	Records int64
}

// SummarySink counts groups and records per partition and logs the totals
// when closed. It runs after every other sink.
type SummarySink struct {
	stats map[int]*PartitionStats
}

var _ Sink = (*SummarySink)(nil)

func NewSummarySink() *SummarySink {
	return &SummarySink{stats: map[int]*PartitionStats{}}
}

func (s *SummarySink) Name() string  { return "summary" }
func (s *SummarySink) RunLast() bool { return true }

func (s *SummarySink) Reduce(_ context.Context, group *shuffle.Group) error {
	st, ok := s.stats[group.Partition]
	if !ok {
		st = &PartitionStats{}
		s.stats[group.Partition] = st
	}
	st.Groups++
	st.Records += int64(len(group.Records))
	return nil
}

// Stats returns a copy of the per partition counts.
func (s *SummarySink) Stats() map[int]PartitionStats {
	out := make(map[int]PartitionStats, len(s.stats))
	for p, st := range s.stats {
		out[p] = *st
	}
	return out
}

func (s *SummarySink) Close(ctx context.Context) error {
	ll := logctx.FromContext(ctx)
	var groups, records int64
	for _, p := range slices.Sorted(maps.Keys(s.stats)) {
		st := s.stats[p]
		groups += st.Groups
		records += st.Records
		ll.Info("Partition summary",
			slog.Int("partition", p),
			slog.Int64("groups", st.Groups),
			slog.Int64("records", st.Records))
	}
	ll.Info("Job summary",
		slog.Int("partitions", len(s.stats)),
		slog.Int64("groups", groups),
		slog.Int64("records", records))
	return nil
}
