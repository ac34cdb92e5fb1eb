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
	"fmt"
	"strings"
)

// Policy orders two decoded keys. Implementations are stateless and
// return -1, 0 or 1.
type Policy interface {
	Name() string
	CompareKeys(a, b *Key) (int, error)
}

const (
	PolicyNatural  = "natural"
	PolicyReverse  = "reverse"
	PolicyGrouping = "grouping"
)

var (
	// Natural sorts by group key, then by sort key, both ascending.
	Natural Policy = naturalPolicy{}

	// Reverse sorts by group key ascending, then by sort key descending.
	// Partitioning is unaffected.
	Reverse Policy = reversePolicy{}

	// Grouping compares group keys only. It is the only policy that may
	// decide reduction boundaries; the others would split a group
	// whenever sort keys differ.
	Grouping Policy = groupingPolicy{}
)

// PolicyByName resolves "natural", "reverse" or "grouping",
// case-insensitively.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyNatural:
		return Natural, nil
	case PolicyReverse:
		return Reverse, nil
	case PolicyGrouping:
		return Grouping, nil
	default:
		return nil, ConfigurationError{Reason: fmt.Sprintf("unknown comparison policy %q", name)}
	}
}

type naturalPolicy struct{}

func (naturalPolicy) Name() string { return PolicyNatural }

func (naturalPolicy) CompareKeys(a, b *Key) (int, error) {
	return a.Compare(b)
}

type reversePolicy struct{}

func (reversePolicy) Name() string { return PolicyReverse }

func (reversePolicy) CompareKeys(a, b *Key) (int, error) {
	c, err := compareGroups(a, b)
	if err != nil || c != 0 {
		return c, err
	}
	c, err = a.Sort.Compare(b.Sort)
	if err != nil {
		return 0, fmt.Errorf("compare sort keys: %w", err)
	}
	return -sign(c), nil
}

type groupingPolicy struct{}

func (groupingPolicy) Name() string { return PolicyGrouping }

func (groupingPolicy) CompareKeys(a, b *Key) (int, error) {
	return compareGroups(a, b)
}

func compareGroups(a, b *Key) (int, error) {
	if err := a.check(); err != nil {
		return 0, err
	}
	if err := b.check(); err != nil {
		return 0, err
	}
	c, err := a.Group.Compare(b.Group)
	if err != nil {
		return 0, fmt.Errorf("compare group keys: %w", err)
	}
	return sign(c), nil
}
