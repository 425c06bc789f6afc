// Package store provides an in-memory, thread-safe registry of named
// scenarios for the API and CLI surfaces.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/stellarflux/transit-simulator/model"
)

var (
	ErrNotFound = errors.New("scenario not found")
	ErrExists   = errors.New("scenario already exists")
	ErrNoName   = errors.New("scenario must be named")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventScenarioPut EventType = iota
	EventScenarioDeleted
)

// Event is emitted to subscribers on every mutation.
type Event struct {
	Type     EventType
	Scenario model.Scenario
}

// ScenarioStore holds scenarios by name. Values are stored by copy, so
// callers can never mutate a stored scenario behind the store's back.
type ScenarioStore struct {
	mu        sync.RWMutex
	scenarios map[string]model.Scenario
	subs      map[int]func(Event)
	nextSub   int
}

func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{
		scenarios: make(map[string]model.Scenario),
		subs:      make(map[int]func(Event)),
	}
}

// snapshotSubs copies the subscriber set; the caller must hold mu.
func (s *ScenarioStore) snapshotSubs() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Put inserts or replaces the scenario under its own name.
func (s *ScenarioStore) Put(sc model.Scenario) error {
	if sc.Name == "" {
		return ErrNoName
	}
	s.mu.Lock()
	s.scenarios[sc.Name] = sc
	event := Event{Type: EventScenarioPut, Scenario: sc}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	// Notify outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Add inserts a scenario, failing if the name is already taken.
func (s *ScenarioStore) Add(sc model.Scenario) error {
	if sc.Name == "" {
		return ErrNoName
	}
	s.mu.Lock()
	if _, exists := s.scenarios[sc.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrExists, sc.Name)
	}
	s.scenarios[sc.Name] = sc
	event := Event{Type: EventScenarioPut, Scenario: sc}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Get returns the scenario with the given name.
func (s *ScenarioStore) Get(name string) (model.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios[name]
	if !ok {
		return model.Scenario{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return sc, nil
}

// Delete removes the scenario with the given name.
func (s *ScenarioStore) Delete(name string) error {
	s.mu.Lock()
	sc, ok := s.scenarios[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(s.scenarios, name)
	event := Event{Type: EventScenarioDeleted, Scenario: sc}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Names returns the stored scenario names in sorted order.
func (s *ScenarioStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.scenarios))
	for name := range s.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored scenarios.
func (s *ScenarioStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenarios)
}

// Subscribe registers a callback for store events and returns an
// unsubscribe function.
func (s *ScenarioStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.nextSub
	s.nextSub++
	s.subs[token] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, token)
	}
}
