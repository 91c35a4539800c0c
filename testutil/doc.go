// Package testutil provides testing utilities for weavecache.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Numbers
//
//	rng := testutil.NewRNG(seed)
//	p := rng.Jitter(point, 0.25)   // perturb each coordinate by up to ±0.25
//
// # Counting Computer
//
//	comp := testutil.NewComputer()
//	c, _ := weavecache.New(tiling, cohTransf, semiTransf, comp)
//	// ... sweep ...
//	comp.Calls()   // number of Compute calls
//	comp.Live()    // results computed but not yet released
//
// # Scenarios
//
//	sc, err := testutil.NewScenario(testutil.ScenarioConfig{Partitions: 3})
//	err = sc.Sweep(nil)
package testutil
