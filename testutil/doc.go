// Package testutil provides testing utilities for recgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random generator, a word-list fixture and
// brute-force reference implementations to check query results against.
//
// # Fixture Generation
//
//	rng := testutil.NewRNG(seed)
//	words := rng.Words(10_000)
//
// # Reference Results
//
//	want := testutil.BruteForceFilter(words, filter)
package testutil
