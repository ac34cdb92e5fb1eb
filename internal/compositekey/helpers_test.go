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
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBinding(t testing.TB, groupType, sortType string) *Binding {
	t.Helper()
	binding, err := Configure(NewRegistry(), groupType, sortType)
	require.NoError(t, err)
	return binding
}

func mustComparator(t testing.TB, binding *Binding, policy Policy) *RawComparator {
	t.Helper()
	c, err := NewRawComparator(binding, policy)
	require.NoError(t, err)
	return c
}

func mustEncode(t testing.TB, k *Key) []byte {
	t.Helper()
	data, err := k.MarshalBinary()
	require.NoError(t, err)
	return data
}

// generateKeys returns text/int32 keys drawn from a small alphabet so that
// equal groups and equal sorts show up often.
func generateKeys(n int, seed uint64) []*Key {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	groups := []string{"", "A", "B", "AA", "b", "zz"}
	keys := make([]*Key, n)
	for i := range keys {
		keys[i] = textIntKey(groups[rng.IntN(len(groups))], int32(rng.IntN(7)-3))
	}
	return keys
}
