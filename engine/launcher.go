package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	"github.com/vexdb/jdbc-bridge/handle"
	"github.com/vexdb/jdbc-bridge/runtime"
)

// Launcher boots a wazero engine and loads every driver module named by
// the classpath entries. It satisfies runtime.Launcher; the root package
// wires it into the default manager.
type Launcher struct {
	// CacheDir enables the compilation cache; see Config.
	CacheDir string
}

// Launch creates the engine, loads the driver artifacts, and returns the
// driver host. Any failure tears the engine down again: a half-started
// runtime never escapes.
func (l *Launcher) Launch(ctx context.Context, opts runtime.Options) (driver.Host, error) {
	cfg := Config{
		MemoryLimitPages: opts.MemoryLimitPages,
		CacheDir:         l.CacheDir,
		ModuleArgs:       opts.RuntimeArgs,
	}
	eng, err := New(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	host := &Host{
		eng:     eng,
		log:     Logger(),
		drivers: make(map[string]*Driver),
		conns:   handle.NewTable[*conn](),
	}

	for _, path := range opts.ClasspathEntries {
		wasmBytes, err := os.ReadFile(path)
		if err != nil {
			_ = eng.Close(ctx)
			return nil, fmt.Errorf("read driver artifact %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		mod, err := eng.Load(ctx, name, wasmBytes)
		if err != nil {
			_ = eng.Close(ctx)
			return nil, err
		}
		info, err := mod.driverInfo(ctx)
		if err != nil {
			_ = eng.Close(ctx)
			return nil, err
		}
		if _, dup := host.drivers[info.ID]; dup {
			_ = eng.Close(ctx)
			return nil, fmt.Errorf("duplicate driver id %q from %s", info.ID, path)
		}
		host.drivers[info.ID] = &Driver{
			host: host,
			mod:  mod,
			info: driver.Info{ID: info.ID, Class: info.Class, Version: info.Version},
		}
		host.log.Info("driver registered",
			zap.String("id", info.ID),
			zap.String("class", info.Class),
			zap.String("version", info.Version))
	}

	return host, nil
}
