package jdbcbridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/bridge"
	"github.com/vexdb/jdbc-bridge/driver"
	"github.com/vexdb/jdbc-bridge/engine"
	"github.com/vexdb/jdbc-bridge/meta"
	"github.com/vexdb/jdbc-bridge/runtime"
)

// Config configures the process-wide foreign runtime.
type Config struct {
	// ClasspathEntries are local driver artifact paths (.wasm modules),
	// resolved beforehand by the caller.
	ClasspathEntries []string

	// RuntimeArgs pass through to every driver module untouched.
	RuntimeArgs []string

	// MemoryLimitPages caps foreign memory in 64 KiB pages; 0 means the
	// runtime default.
	MemoryLimitPages uint32

	// CacheDir enables the module compilation cache.
	CacheDir string

	// Logger receives runtime and engine diagnostics. Nil means silent.
	Logger *zap.Logger
}

// Start boots the default foreign runtime. It is idempotent while the
// runtime is ready and fails permanently after Shutdown; the foreign
// runtime cannot restart within one process.
func Start(ctx context.Context, cfg Config) error {
	if cfg.Logger != nil {
		engine.SetLogger(cfg.Logger)
		runtime.Default().SetLogger(cfg.Logger)
	}
	return runtime.Default().Start(ctx, runtime.Options{
		ClasspathEntries: cfg.ClasspathEntries,
		RuntimeArgs:      cfg.RuntimeArgs,
		MemoryLimitPages: cfg.MemoryLimitPages,
		Launcher:         &engine.Launcher{CacheDir: cfg.CacheDir},
	})
}

// Connect opens a connection through the default runtime.
func Connect(ctx context.Context, driverID, url string, props map[string]string, opts ...bridge.OpenOption) (*bridge.Connection, error) {
	return bridge.Open(ctx, runtime.Default(), driverID, url, props, opts...)
}

// Drivers lists the drivers registered with the default runtime.
func Drivers() ([]driver.Info, error) {
	host, err := runtime.Default().Host()
	if err != nil {
		return nil, err
	}
	return host.Drivers(), nil
}

// Introspect creates a metadata introspector over a connection, sharing
// its type converter so reflection and row decoding agree on types.
func Introspect(c *bridge.Connection) (*meta.Introspector, error) {
	reader, err := c.Meta()
	if err != nil {
		return nil, err
	}
	return meta.New(reader, meta.WithConverter(c.Converter())), nil
}

// Shutdown releases the default runtime and every foreign object it still
// holds. Idempotent and terminal.
func Shutdown(ctx context.Context) error {
	return runtime.Default().Shutdown(ctx)
}
