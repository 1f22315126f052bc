// Package bridge exposes foreign database connections and statement
// cursors to host callers. A Connection wraps one foreign connection with
// transaction control and a liveness predicate; a Cursor prepares,
// executes and iterates results forward-only, encoding parameters and
// decoding rows through the type converter. All foreign failures surface
// as translated errors from the errors package.
package bridge
