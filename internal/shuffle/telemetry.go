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
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	recordsEmittedCounter otelmetric.Int64Counter
	runsSpilledCounter    otelmetric.Int64Counter
	recordsMergedCounter  otelmetric.Int64Counter
	groupsReducedCounter  otelmetric.Int64Counter
	recordsReducedCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/secsort/internal/shuffle")

	var err error
	recordsEmittedCounter, err = meter.Int64Counter(
		"secsort.shuffle.records.emitted",
		otelmetric.WithDescription("Number of records accepted by the map side of the shuffle"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create records.emitted counter: %w", err))
	}

	runsSpilledCounter, err = meter.Int64Counter(
		"secsort.shuffle.runs.spilled",
		otelmetric.WithDescription("Number of sorted runs written to disk"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create runs.spilled counter: %w", err))
	}

	recordsMergedCounter, err = meter.Int64Counter(
		"secsort.shuffle.records.merged",
		otelmetric.WithDescription("Number of records produced by the k-way merge"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create records.merged counter: %w", err))
	}

	groupsReducedCounter, err = meter.Int64Counter(
		"secsort.shuffle.groups.reduced",
		otelmetric.WithDescription("Number of groups handed to the reducer"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create groups.reduced counter: %w", err))
	}

	recordsReducedCounter, err = meter.Int64Counter(
		"secsort.shuffle.records.reduced",
		otelmetric.WithDescription("Number of records handed to the reducer"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create records.reduced counter: %w", err))
	}
}
