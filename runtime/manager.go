package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
)

// State is the lifecycle phase of the foreign runtime. Transitions move
// forward only; a runtime that reached ShutDown never becomes Ready again
// within the same process, because the bridged runtime does not support
// restart. A Failed start may be retried by the caller with adjusted
// options; the manager itself never retries.
type State int32

const (
	Uninitialized State = iota
	Starting
	Ready
	Failed
	ShutDown
)

var stateNames = [...]string{"Uninitialized", "Starting", "Ready", "Failed", "ShutDown"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Launcher boots the foreign runtime and returns its driver host. The
// engine package provides the production launcher; tests substitute an
// in-memory one.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (driver.Host, error)
}

// Options configures a runtime start. Options supplied to a second Start
// while the runtime is already Ready are ignored with a warning; they are
// never applied to a running runtime.
type Options struct {
	// ClasspathEntries are local driver artifact paths, supplied by the
	// driver-artifact resolver collaborator.
	ClasspathEntries []string

	// RuntimeArgs are passed through to the foreign runtime untouched.
	RuntimeArgs []string

	// MemoryLimitPages caps foreign memory in 64 KiB pages; 0 means the
	// runtime default.
	MemoryLimitPages uint32

	// Launcher boots the runtime. Required; the root package wires the
	// engine launcher in.
	Launcher Launcher
}

func (o *Options) equivalent(other *Options) bool {
	if len(o.ClasspathEntries) != len(other.ClasspathEntries) ||
		len(o.RuntimeArgs) != len(other.RuntimeArgs) ||
		o.MemoryLimitPages != other.MemoryLimitPages {
		return false
	}
	for i := range o.ClasspathEntries {
		if o.ClasspathEntries[i] != other.ClasspathEntries[i] {
			return false
		}
	}
	for i := range o.RuntimeArgs {
		if o.RuntimeArgs[i] != other.RuntimeArgs[i] {
			return false
		}
	}
	return true
}

// Manager owns the process-wide foreign runtime as an explicit state
// machine behind one accessor. Start and Shutdown are serialized by a
// single exclusive lock because the foreign runtime does not support
// concurrent initialization.
type Manager struct {
	mu    sync.Mutex
	state atomic.Int32
	host  driver.Host
	opts  Options
	log   *zap.Logger
}

// NewManager creates an independent manager. Production code normally
// goes through Default; independent instances exist so lifecycle ordering
// is testable.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager(nil)
	})
	return defaultManager
}

// SetLogger replaces the manager's logger. Intended for process setup,
// before Start.
func (m *Manager) SetLogger(log *zap.Logger) {
	if log == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Ready reports whether foreign calls may proceed.
func (m *Manager) Ready() bool {
	return m.State() == Ready
}

// Start boots the foreign runtime. It is idempotent while Ready: a second
// call succeeds without touching the running runtime, warning when its
// options differ. After Shutdown it always fails; restarting the foreign
// runtime within one process is unsupported.
func (m *Manager) Start(ctx context.Context, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.State() {
	case Ready:
		if !m.opts.equivalent(&opts) {
			m.log.Warn("runtime already started; ignoring differing start options")
		}
		return nil
	case ShutDown:
		return jerrors.RuntimeStart(nil,
			"foreign runtime was shut down and cannot be restarted in this process")
	}

	if opts.Launcher == nil {
		m.state.Store(int32(Failed))
		return jerrors.RuntimeStart(nil, "no launcher configured")
	}

	m.state.Store(int32(Starting))
	m.log.Info("starting foreign runtime",
		zap.Int("classpath_entries", len(opts.ClasspathEntries)))

	host, err := opts.Launcher.Launch(ctx, opts)
	if err != nil {
		m.state.Store(int32(Failed))
		return jerrors.RuntimeStart(err, "foreign runtime failed to start")
	}

	m.host = host
	m.opts = opts
	m.state.Store(int32(Ready))
	m.log.Info("foreign runtime ready", zap.Int("drivers", len(host.Drivers())))
	return nil
}

// Shutdown releases the runtime and every foreign object it still holds.
// It is idempotent; once it returns, Start fails permanently.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == ShutDown {
		return nil
	}

	var err error
	if m.host != nil {
		err = m.host.Close(ctx)
		m.host = nil
	}
	m.state.Store(int32(ShutDown))
	m.log.Info("foreign runtime shut down")
	return err
}

// Host returns the driver host, failing unless the runtime is Ready.
// Every connection open passes through this gate.
func (m *Manager) Host() (driver.Host, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != Ready {
		return nil, jerrors.RuntimeNotReady(m.State().String())
	}
	return m.host, nil
}
