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
// Package handlers orders the pluggable handlers of a job.
package handlers

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Handler is anything a job runs in sequence, such as an output sink.
type Handler interface {
	Name() string
	// RunLast reports whether the handler must run after all others.
	RunLast() bool
}

// Ordered drops handlers named in skip and moves run-last handlers to the
// end. Relative order is otherwise preserved. The input is not modified.
func Ordered[H Handler](handlers []H, skip mapset.Set[string]) []H {
	out := make([]H, 0, len(handlers))
	for _, h := range handlers {
		if skip != nil && skip.Contains(h.Name()) {
			continue
		}
		out = append(out, h)
	}
	slices.SortStableFunc(out, func(a, b H) int {
		switch {
		case a.RunLast() == b.RunLast():
			return 0
		case a.RunLast():
			return 1
		default:
			return -1
		}
	})
	return out
}

// ParseSkipList parses a comma separated list of handler names.
func ParseSkipList(s string) mapset.Set[string] {
	skip := mapset.NewThreadUnsafeSet[string]()
	for name := range strings.SplitSeq(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			skip.Add(name)
		}
	}
	return skip
}
