package queue

// Entry is a relevance hint for a cache item.
//
// Entries are copies, not owners: several entries may refer to the same
// item, and an entry may outlive the item it refers to.
type Entry struct {
	Partition uint32  // Partition is the frequency partition of the item.
	Relevance float32 // Relevance is the item's relevance when the entry was pushed.
	Index     uint64  // Index is the coherent index of the item.
}

// Compare orders by partition, then relevance, both ascending.
// It returns -1, 0 or +1.
func Compare(partitionA uint32, relevanceA float32, partitionB uint32, relevanceB float32) int {
	switch {
	case partitionA < partitionB:
		return -1
	case partitionA > partitionB:
		return +1
	case relevanceA < relevanceB:
		return -1
	case relevanceA > relevanceB:
		return +1
	}
	return 0
}

// Before reports whether e ranks strictly below (partition, relevance).
func (e Entry) Before(partition uint32, relevance float32) bool {
	return Compare(e.Partition, e.Relevance, partition, relevance) < 0
}

// RelevanceQueue is a binary min-heap of entries ordered by (Partition, Relevance).
// Value-based storage, no pointers.
type RelevanceQueue struct {
	items []Entry
}

// New creates an empty queue with the given initial capacity.
func New(capacity int) *RelevanceQueue {
	return &RelevanceQueue{
		items: make([]Entry, 0, capacity),
	}
}

// Len returns the number of entries in the queue.
func (q *RelevanceQueue) Len() int { return len(q.items) }

// Root returns the least relevant entry without removing it.
func (q *RelevanceQueue) Root() (Entry, bool) {
	if len(q.items) == 0 {
		return Entry{}, false
	}
	return q.items[0], true
}

// Push inserts an entry while maintaining the heap invariant.
func (q *RelevanceQueue) Push(e Entry) {
	q.items = append(q.items, e)
	q.siftUp(len(q.items) - 1)
}

// PopRoot removes and returns the least relevant entry.
func (q *RelevanceQueue) PopRoot() (Entry, bool) {
	n := len(q.items)
	if n == 0 {
		return Entry{}, false
	}
	root := q.items[0]
	last := q.items[n-1]
	q.items[n-1] = Entry{}
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root, true
}

// Reset clears the queue for reuse.
func (q *RelevanceQueue) Reset() {
	q.items = q.items[:0]
}

func (q *RelevanceQueue) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	return Compare(a.Partition, a.Relevance, b.Partition, b.Relevance) < 0
}

func (q *RelevanceQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *RelevanceQueue) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
