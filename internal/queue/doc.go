// Package queue provides the relevance queue used for cache eviction.
//
// The queue orders lightweight hints by (partition, relevance). Hints are
// never updated in place; a cache pushes a fresh hint whenever an item's
// relevance is raised and reconciles stale hints when they reach the root.
package queue
