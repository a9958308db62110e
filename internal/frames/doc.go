// Package frames holds the pure, filesystem-light stages that run before any
// rendering happens: frame identifiers and ordered frame sets, selection by
// snapshot/range/stride, the skip/overwrite existence policy, chunk planning
// and the ordinal file naming that assembly depends on.
//
// Order is the one invariant every stage preserves. A Set is rendering order
// and display order at once; nothing in this package reorders it.
package frames
