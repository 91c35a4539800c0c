// Package cache provides the index table which owns cached coherent results.
//
// Items are keyed by frequency partition and coherent index. The table never
// evicts on its own; eviction is driven by the relevance queue of the owning
// cache, which extracts items from the table before releasing them.
package cache
