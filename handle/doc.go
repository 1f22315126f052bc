// Package handle provides a generational arena for foreign-runtime object
// references. Foreign objects are never exposed as raw pointers to host
// code; they live in a Table and travel as opaque handles whose generation
// counter detects use after release.
package handle
