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
// Package output holds the sinks that receive reduced groups.
package output

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/handlers"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

// Sink consumes reduced groups. Sinks are called one at a time by a
// Pipeline and do not need their own locking.
type Sink interface {
	handlers.Handler
	shuffle.Reducer
	Close(ctx context.Context) error
}

// Pipeline fans each group out to its sinks in handler order.
type Pipeline struct {
	mu    sync.Mutex
	sinks []Sink
}

var _ shuffle.Reducer = (*Pipeline)(nil)

// NewPipeline orders sinks with handlers.Ordered, dropping skipped ones.
func NewPipeline(sinks []Sink, skip mapset.Set[string]) *Pipeline {
	return &Pipeline{sinks: handlers.Ordered(sinks, skip)}
}

// Sinks returns the sinks in the order they run.
func (p *Pipeline) Sinks() []Sink {
	return p.sinks
}

func (p *Pipeline) Reduce(ctx context.Context, group *shuffle.Group) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sinks {
		if err := s.Reduce(ctx, group); err != nil {
			return fmt.Errorf("sink %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Close closes every sink in order, even after a failure.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result *multierror.Error
	for _, s := range p.sinks {
		if err := s.Close(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("close sink %s: %w", s.Name(), err))
		}
	}
	return result.ErrorOrNil()
}

// decodeRecordKey decodes rec's key into scratch.
func decodeRecordKey(scratch *compositekey.Key, rec shuffle.Record) error {
	if err := scratch.UnmarshalBinary(rec.Key); err != nil {
		return fmt.Errorf("failed to decode record key: %w", err)
	}
	return nil
}
