package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// CacheDir enables a persistent compilation cache so driver modules
	// compile once across processes. Empty means no cache.
	CacheDir string

	// ModuleArgs are passed to every driver module untouched.
	ModuleArgs []string
}

// Engine owns one wazero runtime hosting every driver module.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
	log     *zap.Logger
}

// New creates a wazero-backed engine. The runtime is configured to close
// in-flight guest calls when their context is canceled.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("open compilation cache: %w", err)
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	return &Engine{runtime: r, cfg: *cfg, log: Logger()}, nil
}

// Load compiles and instantiates one driver module. Driver modules are
// reactors: _initialize runs if exported, _start never does.
func (e *Engine) Load(ctx context.Context, name string, wasmBytes []byte) (*module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize").
		WithArgs(append([]string{name}, e.cfg.ModuleArgs...)...)

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}

	m := &module{
		name:  name,
		mod:   mod,
		alloc: mod.ExportedFunction(exportAlloc),
		free:  mod.ExportedFunction(exportFree),
		call:  mod.ExportedFunction(exportCall),
		info:  mod.ExportedFunction(exportDriverInfo),
		log:   e.log.With(zap.String("module", name)),
	}
	if m.alloc == nil || m.free == nil || m.call == nil || m.info == nil {
		_ = mod.Close(ctx)
		return nil, fmt.Errorf("%s does not export the driver ABI", name)
	}

	e.log.Info("driver module loaded", zap.String("module", name))
	return m, nil
}

// Close tears down the runtime and every module in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
