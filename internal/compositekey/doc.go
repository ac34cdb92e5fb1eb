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

// Package compositekey implements secondary-sort keys: a (group, sort)
// pair that is partitioned and grouped by the group key alone while being
// ordered by both.
//
// A job binds its concrete key types once with Configure. Each sort
// worker then builds its own RawComparator (Natural or Reverse for
// ordering, Grouping for reduction boundaries) and KeyPartitioner. Both
// work on serialized bytes and keep private scratch keys, so they must not
// be shared between goroutines. The Binding itself is read-only and
// shared freely.
package compositekey
