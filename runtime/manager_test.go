package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
)

type stubHost struct {
	closed atomic.Bool
}

func (h *stubHost) FindDriver(ctx context.Context, id string) (driver.Driver, error) {
	return nil, jerrors.DriverNotFound(id)
}

func (h *stubHost) Drivers() []driver.Info { return nil }

func (h *stubHost) Close(ctx context.Context) error {
	h.closed.Store(true)
	return nil
}

type stubLauncher struct {
	host     *stubHost
	err      error
	launches atomic.Int32
}

func (l *stubLauncher) Launch(ctx context.Context, opts Options) (driver.Host, error) {
	l.launches.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	if l.host == nil {
		l.host = &stubHost{}
	}
	return l.host, nil
}

func TestManager_StartOnce(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	l := &stubLauncher{}

	if err := m.Start(ctx, Options{Launcher: l}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != Ready {
		t.Fatalf("state = %s, want Ready", m.State())
	}

	// A second start is a no-op, even with different options.
	if err := m.Start(ctx, Options{Launcher: l, RuntimeArgs: []string{"-Xmx1g"}}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := l.launches.Load(); got != 1 {
		t.Errorf("launcher invoked %d times, want 1", got)
	}
}

func TestManager_ConcurrentStart(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	l := &stubLauncher{}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Start(ctx, Options{Launcher: l}); err != nil {
				t.Errorf("Start: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := l.launches.Load(); got != 1 {
		t.Errorf("launcher invoked %d times under contention, want 1", got)
	}
	if m.State() != Ready {
		t.Errorf("state = %s, want Ready", m.State())
	}
}

func TestManager_StartAfterShutdown(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	l := &stubLauncher{}

	if err := m.Start(ctx, Options{Launcher: l}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !l.host.closed.Load() {
		t.Error("Shutdown did not close the host")
	}

	err := m.Start(ctx, Options{Launcher: l})
	if !errors.Is(err, jerrors.ErrRuntimeStart) {
		t.Errorf("Start after Shutdown err = %v, want runtime-start error", err)
	}
	if m.State() != ShutDown {
		t.Errorf("state = %s, want ShutDown", m.State())
	}
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)

	if err := m.Start(ctx, Options{Launcher: &stubLauncher{}}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Shutdown(ctx); err != nil {
			t.Fatalf("Shutdown #%d: %v", i+1, err)
		}
	}
}

func TestManager_FailedStartAllowsRetry(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	l := &stubLauncher{err: errors.New("artifact missing")}

	err := m.Start(ctx, Options{Launcher: l})
	if !errors.Is(err, jerrors.ErrRuntimeStart) {
		t.Fatalf("failed Start err = %v, want runtime-start error", err)
	}
	if m.State() != Failed {
		t.Fatalf("state = %s, want Failed", m.State())
	}

	// The caller may retry with fixed options; Failed is not terminal.
	l.err = nil
	if err := m.Start(ctx, Options{Launcher: l}); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if m.State() != Ready {
		t.Errorf("state after retry = %s, want Ready", m.State())
	}
}

func TestManager_HostGate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)

	if _, err := m.Host(); !errors.Is(err, jerrors.ErrRuntimeNotReady) {
		t.Errorf("Host before Start err = %v, want not-ready error", err)
	}

	if err := m.Start(ctx, Options{Launcher: &stubLauncher{}}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Host(); err != nil {
		t.Errorf("Host while Ready: %v", err)
	}

	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := m.Host(); !errors.Is(err, jerrors.ErrRuntimeNotReady) {
		t.Errorf("Host after Shutdown err = %v, want not-ready error", err)
	}
}
