// Package engine hosts driver modules inside a wazero WebAssembly runtime
// and implements the driver call surface over them. Each driver artifact
// is a WASM module exporting a small dispatch ABI; the engine moves JSON
// call frames through guest linear memory and keeps every foreign object
// behind an opaque handle.
package engine
