// Package drivertest provides a scriptable in-memory implementation of the
// driver interfaces, plus a runtime launcher serving it. Bridge, metadata
// and lifecycle tests run against it instead of a real foreign runtime.
package drivertest
