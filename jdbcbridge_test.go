package jdbcbridge

import (
	"context"
	"errors"
	"testing"

	jerrors "github.com/vexdb/jdbc-bridge/errors"
)

// The default manager is process-global, so one test walks the whole
// lifecycle in order: failed start, retryability, terminal shutdown.
func TestDefaultLifecycle(t *testing.T) {
	ctx := context.Background()

	// A classpath entry that cannot be read fails the start but leaves
	// retry possible.
	err := Start(ctx, Config{ClasspathEntries: []string{"testdata/no-such-driver.wasm"}})
	if !errors.Is(err, jerrors.ErrRuntimeStart) {
		t.Fatalf("Start with missing artifact err = %v, want runtime-start error", err)
	}

	if _, err := Connect(ctx, "pg", "jdbc:test://db", nil); !errors.Is(err, jerrors.ErrRuntimeNotReady) {
		t.Errorf("Connect before Ready err = %v, want runtime-not-ready", err)
	}
	if _, err := Drivers(); !errors.Is(err, jerrors.ErrRuntimeNotReady) {
		t.Errorf("Drivers before Ready err = %v, want runtime-not-ready", err)
	}

	if err := Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}

	// After shutdown the runtime never comes back.
	err = Start(ctx, Config{ClasspathEntries: []string{"testdata/no-such-driver.wasm"}})
	if !errors.Is(err, jerrors.ErrRuntimeStart) {
		t.Errorf("Start after Shutdown err = %v, want runtime-start error", err)
	}
}
