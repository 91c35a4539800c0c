package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevanceQueue_Empty(t *testing.T) {
	q := New(0)

	_, ok := q.Root()
	assert.False(t, ok)

	_, ok = q.PopRoot()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestRelevanceQueue_OrdersByPartitionThenRelevance(t *testing.T) {
	q := New(4)
	q.Push(Entry{Partition: 1, Relevance: -5, Index: 1})
	q.Push(Entry{Partition: 0, Relevance: 3, Index: 2})
	q.Push(Entry{Partition: 0, Relevance: 1, Index: 3})
	q.Push(Entry{Partition: 1, Relevance: -10, Index: 4})

	var got []uint64
	for q.Len() > 0 {
		e, ok := q.PopRoot()
		require.True(t, ok)
		got = append(got, e.Index)
	}
	assert.Equal(t, []uint64{3, 2, 4, 1}, got)
}

func TestRelevanceQueue_RandomMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := New(0)

	entries := make([]Entry, 500)
	for i := range entries {
		entries[i] = Entry{
			Partition: uint32(rng.Intn(3)),
			Relevance: float32(rng.Intn(50)),
			Index:     uint64(i),
		}
		q.Push(entries[i])
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i].Partition, entries[i].Relevance, entries[j].Partition, entries[j].Relevance) < 0
	})

	for _, want := range entries {
		root, ok := q.Root()
		require.True(t, ok)
		got, _ := q.PopRoot()
		assert.Equal(t, root, got)
		assert.Equal(t, want.Partition, got.Partition)
		assert.Equal(t, want.Relevance, got.Relevance)
	}
	assert.Equal(t, 0, q.Len())
}

func TestEntry_Before(t *testing.T) {
	e := Entry{Partition: 1, Relevance: 2}

	assert.True(t, e.Before(1, 2.5))
	assert.True(t, e.Before(2, -100))
	assert.False(t, e.Before(1, 2))
	assert.False(t, e.Before(0, 100))
}

func TestRelevanceQueue_Reset(t *testing.T) {
	q := New(2)
	q.Push(Entry{Index: 1})
	q.Push(Entry{Index: 2})
	q.Reset()
	assert.Equal(t, 0, q.Len())

	q.Push(Entry{Relevance: 1, Index: 3})
	root, ok := q.Root()
	require.True(t, ok)
	assert.Equal(t, uint64(3), root.Index)
}
