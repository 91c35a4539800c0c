// Package sweep drives a semicoherent search over weavecache caches.
//
// A Sweeper visits every frequency partition and, within it, every block of
// the semicoherent tiling in iteration order. For each block it resolves one
// coherent block per segment, retrieves the cached or freshly computed
// coherent results, adds them up, and records the block's loudest bin.
//
// Records are written as a codec stream, optionally compressed with zstd or
// lz4, through the IO limiter of a resource.Controller.
package sweep
