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
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareOrFail(t *testing.T, p Policy, a, b *Key) int {
	t.Helper()
	c, err := p.CompareKeys(a, b)
	require.NoError(t, err)
	return c
}

func TestPolicies_TotalOrder(t *testing.T) {
	keys := generateKeys(40, 7)
	for _, p := range []Policy{Natural, Reverse} {
		t.Run(p.Name(), func(t *testing.T) {
			for _, a := range keys {
				assert.Equal(t, 0, compareOrFail(t, p, a, a), "reflexive for %v", a)
				for _, b := range keys {
					ab := compareOrFail(t, p, a, b)
					ba := compareOrFail(t, p, b, a)
					assert.Equal(t, -ab, ba, "antisymmetric for %v, %v", a, b)
					assert.Equal(t, a.Equal(b), ab == 0, "consistent with equality for %v, %v", a, b)
					for _, c := range keys {
						if ab <= 0 && compareOrFail(t, p, b, c) <= 0 {
							assert.LessOrEqual(t, compareOrFail(t, p, a, c), 0, "transitive for %v, %v, %v", a, b, c)
						}
					}
				}
			}
		})
	}
}

func TestPolicies_Laws(t *testing.T) {
	keys := generateKeys(60, 11)
	for _, a := range keys {
		for _, b := range keys {
			groupCmp, err := a.Group.Compare(b.Group)
			require.NoError(t, err)
			sortCmp, err := a.Sort.Compare(b.Sort)
			require.NoError(t, err)

			natural := compareOrFail(t, Natural, a, b)
			reverse := compareOrFail(t, Reverse, a, b)
			grouping := compareOrFail(t, Grouping, a, b)

			if groupCmp == 0 {
				assert.Equal(t, sign(sortCmp), natural, "natural follows sort key within %v", a.Group)
				assert.Equal(t, -natural, reverse, "reverse negates natural within %v", a.Group)
			} else {
				assert.Equal(t, sign(groupCmp), natural, "natural follows group key regardless of sort")
				assert.Equal(t, sign(groupCmp), reverse, "reverse keeps groups ascending")
			}
			assert.Equal(t, groupCmp == 0, grouping == 0, "grouping ignores sort keys for %v, %v", a, b)
		}
	}
}

func scenarioKeys() []*Key {
	// deliberately unsorted
	return []*Key{
		New(NewText("C"), NewText("2")),
		New(NewText("A"), NewText("2")),
		New(NewText("C"), NewText("1")),
		New(NewText("B"), NewText("2")),
		New(NewText("A"), NewText("1")),
		New(NewText("B"), NewText("1")),
	}
}

func sortWith(t *testing.T, p Policy, keys []*Key) []string {
	t.Helper()
	var sortErr error
	slices.SortStableFunc(keys, func(a, b *Key) int {
		c, err := p.CompareKeys(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c
	})
	require.NoError(t, sortErr)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Group.String() + k.Sort.String()
	}
	return out
}

func TestPolicies_NaturalScenario(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "C1", "C2"}, sortWith(t, Natural, scenarioKeys()))
}

func TestPolicies_ReverseScenario(t *testing.T) {
	assert.Equal(t, []string{"A2", "A1", "B2", "B1", "C2", "C1"}, sortWith(t, Reverse, scenarioKeys()))
}

func TestPolicies_GroupingScenario(t *testing.T) {
	got := sortWith(t, Grouping, scenarioKeys())
	groups := make([]string, len(got))
	for i, s := range got {
		groups[i] = s[:1]
	}
	assert.Equal(t, []string{"A", "A", "B", "B", "C", "C"}, groups)
}

func TestPolicyByName(t *testing.T) {
	tests := []struct {
		name     string
		expected Policy
	}{
		{"natural", Natural},
		{"Reverse", Reverse},
		{" grouping ", Grouping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}

	_, err := PolicyByName("descending")
	var cfgErr ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestPolicies_PropagateTypeErrors(t *testing.T) {
	a := textIntKey("A", 1)
	b := New(NewText("A"), NewText("1"))
	for _, p := range []Policy{Natural, Reverse} {
		_, err := p.CompareKeys(a, b)
		var typeErr IncomparableTypeError
		assert.True(t, errors.As(err, &typeErr), "%s should report incomparable sort keys", p.Name())
	}
	// grouping never looks at the sort key
	c, err := Grouping.CompareKeys(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}
