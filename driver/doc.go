// Package driver defines the call surface between the bridge and a foreign
// driver implementation. The engine package implements it over driver
// modules hosted in the foreign runtime; drivertest implements it in memory
// for tests. Everything above this seam (bridge, conv, meta) is
// implementation-agnostic.
//
// All errors crossing this surface are *errors.ForeignException values (or
// *BatchFault wrapping one) so the bridge can translate them into the
// closed taxonomy at the boundary.
package driver
