package dispatch

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	events  []Event
	paused  bool
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]Event, len(m.events))
	for i, e := range m.events {
		out[i] = e.Clone()
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.events = make([]Event, len(events))
	for i, e := range events {
		m.events[i] = e.Clone()
	}
	m.saves++
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return m.loadErr
	}
	current := make([]Event, len(m.events))
	for i, e := range m.events {
		current[i] = e.Clone()
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.events = make([]Event, len(next))
	for i, e := range next {
		m.events[i] = e.Clone()
	}
	m.saves++
	return nil
}

func (m *MemoryStore) Paused(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadErr != nil {
		return false, m.loadErr
	}
	return m.paused, nil
}

func (m *MemoryStore) SetPaused(ctx context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.paused = paused
	return nil
}

// Saves returns how many successful full rewrites happened.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// FailLoads makes every subsequent read return err. Pass nil to recover.
func (m *MemoryStore) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSaves makes every subsequent write return err. Pass nil to recover.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
