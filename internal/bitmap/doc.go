// Package bitmap provides the computed-index set used for cost accounting.
//
// A ComputedSet answers "has this coherent index ever been computed in the
// current frequency partition?", which separates first-time computations
// (new templates) from recomputations after eviction. It has no influence on
// what is cached.
package bitmap
