// Package runtime manages the process-wide foreign runtime lifecycle.
//
// The foreign runtime can be started exactly once per process and never
// safely restarted, so the manager is an explicit state machine
// (Uninitialized, Starting, Ready, Failed, ShutDown) rather than ambient
// global state. Start must reach Ready before any connection opens;
// Shutdown is terminal.
package runtime
