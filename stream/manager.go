package stream

import (
	"sync"

	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
	"github.com/wrtcore/fuelrt/log"
)

// handle is the type-erased view of a Stream[T] a Manager needs: every
// concrete Stream[T] satisfies it without the manager knowing T.
type handle interface {
	ID() uint64
	ComponentID() fuel.ComponentID
	State() State
	FuelConsumed() fuel.Fuel
	Cancel() error
}

// Manager owns every stream created through it, enforces a global
// stream-fuel budget shared across all of them, and can bulk-cancel every
// stream touching a given component.
type Manager struct {
	mu           sync.Mutex
	streams      map[uint64]handle
	nextID       uint64
	globalBudget fuel.Fuel
	globalSpent  fuel.Fuel
	logger       log.Logger
}

type managerOptions struct {
	logger log.Logger
}

// ManagerOption configures a NewManager.
type ManagerOption func(*managerOptions)

// WithLogger attaches a logger for structured diagnostics. Defaults to
// log.NoOp().
func WithLogger(l log.Logger) ManagerOption {
	return func(o *managerOptions) { o.logger = l }
}

func resolveManagerOptions(opts []ManagerOption) *managerOptions {
	cfg := &managerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = log.NoOp()
	}
	return cfg
}

// NewManager constructs a Manager with the given global stream-fuel
// budget. A budget of 0 means unlimited.
func NewManager(globalBudget fuel.Fuel, opts ...ManagerOption) *Manager {
	cfg := resolveManagerOptions(opts)
	return &Manager{
		streams:      make(map[uint64]handle),
		globalBudget: globalBudget,
		logger:       cfg.logger,
	}
}

// Create allocates and registers a new stream of element type T. isBounded
// enables the bounded-stream back-pressure rule against maxItems.
func Create[T any](m *Manager, componentID fuel.ComponentID, fuelBudget fuel.Fuel, isBounded bool, maxItems int) (*Stream[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.globalBudget != 0 && m.globalSpent+CreateCost > m.globalBudget {
		return nil, errs.New(errs.Async, errs.CodeFuelExhausted, "stream manager global fuel budget exhausted")
	}
	m.globalSpent += CreateCost

	m.nextID++
	s := newStream[T](m.nextID, componentID, fuelBudget, isBounded, maxItems)
	m.streams[s.id] = s
	return s, nil
}

// Get looks up a registered stream by id regardless of element type; most
// callers instead keep the typed *Stream[T] returned by Create.
func (m *Manager) Get(id uint64) (handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.streams[id]
	return h, ok
}

// Remove drops a completed or cancelled stream from bookkeeping.
func (m *Manager) Remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.streams, id)
}

// CancelComponentStreams cancels and drops every stream originating from
// or targeting componentID.
func (m *Manager) CancelComponentStreams(componentID fuel.ComponentID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, h := range m.streams {
		if h.ComponentID() != componentID {
			continue
		}
		_ = h.Cancel()
		delete(m.streams, id)
		n++
	}
	if n > 0 && m.logger.IsEnabled(log.LevelInfo) {
		m.logger.Log(log.Entry{
			Level:    log.LevelInfo,
			Category: "stream",
			Message:  "component streams cancelled",
			Fields:   map[string]any{"component": uint64(componentID), "count": n},
		})
	}
	return n
}

// Len reports the number of streams currently tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// GlobalFuelSpent reports total fuel charged to stream creation across the
// manager's lifetime (per-stream poll/yield/close costs are tracked on the
// individual Stream, not here).
func (m *Manager) GlobalFuelSpent() fuel.Fuel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.globalSpent
}
