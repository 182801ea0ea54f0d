package sequence

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorChain(t *testing.T) {
	it := From([]int{5, 1, 4, 2, 3, 4})

	assert.Equal(t, 6, it.Count())
	assert.Equal(t, []int{5, 1, 4, 2, 3}, Distinct(it).Collect())
	assert.Equal(t, []int{5, 1, 4, 2, 3, 4, 7}, Chain(it, From([]int{7})).Collect())

	// Iterators are restartable.
	assert.Equal(t, 6, it.Count())
}

func TestFindAndFirst(t *testing.T) {
	it := From([]string{"a", "bb", "ccc"})

	v, ok := it.Find(func(s string) bool { return len(s) == 2 })
	require.True(t, ok)
	assert.Equal(t, "bb", v)

	_, ok = it.Find(func(s string) bool { return len(s) > 5 })
	assert.False(t, ok)

	first, ok := it.First()
	require.True(t, ok)
	assert.Equal(t, "a", first)

	_, ok = From[string](nil).First()
	assert.False(t, ok)
}

func TestFirstStopsEarly(t *testing.T) {
	pulled := 0
	seq := func(yield func(string, int) bool) {
		for _, k := range []string{"a", "b", "c"} {
			pulled++
			if !yield(k, pulled) {
				return
			}
		}
	}

	k, ok := Keys(seq).First()
	require.True(t, ok)
	assert.Equal(t, "a", k)
	assert.Equal(t, 1, pulled)
}

func TestMapKeysValues(t *testing.T) {
	m := map[string]int{"x": 1, "y": 2}

	keys := Keys(maps.All(m)).Collect()
	slices.Sort(keys)
	assert.Equal(t, []string{"x", "y"}, keys)

	sum := 0
	for v := range Values(maps.All(m)).Seq() {
		sum += v
	}
	assert.Equal(t, 3, sum)

	lengths := Map(From([]string{"a", "bcd"}), func(s string) int { return len(s) }).Collect()
	assert.Equal(t, []int{1, 3}, lengths)
}
