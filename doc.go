// Package jdbcbridge bridges Go callers to database drivers running
// inside a managed foreign runtime.
//
// Driver artifacts are WebAssembly modules hosted in a wazero runtime the
// bridge starts once per process. Connections, statements and result sets
// are foreign objects addressed through opaque handles; values cross the
// boundary through a type converter that never narrows silently, and
// every foreign failure is translated into a closed error taxonomy.
//
// # Architecture Overview
//
// The library is organized into flat packages with distinct responsibilities:
//
//	jdbcbridge/          Root facade: Start, Connect, Shutdown
//	├── runtime/         Process-wide runtime lifecycle (state machine)
//	├── engine/          wazero driver host and the module call ABI
//	├── driver/          Foreign call surface shared by engine and fakes
//	├── bridge/          Connections and statement cursors
//	├── conv/            Host value <-> foreign datum conversion
//	├── meta/            Structural metadata introspection
//	├── sqltype/         SQL type codes, descriptors, host values
//	├── errors/          Error taxonomy and exception translation
//	├── handle/          Generational handle arena
//	└── drivertest/      Scriptable in-memory driver for tests
//
// # Quick Start
//
// Start the runtime once, then open connections:
//
//	err := jdbcbridge.Start(ctx, jdbcbridge.Config{
//	    ClasspathEntries: []string{"drivers/postgres.wasm"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer jdbcbridge.Shutdown(ctx)
//
//	conn, err := jdbcbridge.Connect(ctx, "postgres",
//	    "jdbc:postgresql://db:5432/app",
//	    map[string]string{"user": "app", "password": secret})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	cur := conn.Cursor()
//	defer cur.Close(ctx)
//	if err := cur.Execute(ctx, "SELECT id, name FROM users"); err != nil {
//	    log.Fatal(err)
//	}
//	rows, err := cur.FetchAll(ctx)
//
// # Lifecycle
//
// The foreign runtime starts exactly once per process and cannot be
// restarted after Shutdown. Start is idempotent while the runtime is
// ready; differing options on a repeat call are ignored with a warning.
//
// # Thread Safety
//
// The runtime manager is safe for concurrent use. A Connection and its
// Cursors assume one user at a time; callers needing concurrency open
// one connection per goroutine.
package jdbcbridge
