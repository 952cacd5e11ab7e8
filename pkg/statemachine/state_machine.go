// Copyright 2025 FireLater Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"fmt"
	"slices"
	"sync"
)

// TransitionHook is triggered when a state transition occurs.
type TransitionHook[T comparable] func(from, to T) error

// StateMachine is a generic finite state machine.
// Transitions are declared up front with Allow; TransitTo validates against
// the declared table. The StateMachine is safe for concurrent use.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	currentState T
	initialState T

	validTransitions map[T][]T
	onTransition     []TransitionHook[T]
}

// NewWithState creates a StateMachine with an initial state.
func NewWithState[T comparable](initialState T) *StateMachine[T] {
	return &StateMachine[T]{
		currentState:     initialState,
		initialState:     initialState,
		validTransitions: make(map[T][]T),
	}
}

// Allow registers valid state transitions from a source state.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, target := range to {
		if !slices.Contains(sm.validTransitions[from], target) {
			sm.validTransitions[from] = append(sm.validTransitions[from], target)
		}
	}
	return sm
}

// OnTransition registers a hook that runs on every successful transition.
func (sm *StateMachine[T]) OnTransition(h TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, h)
	return sm
}

// Current returns the current state.
func (sm *StateMachine[T]) Current() T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// SetCurrent sets the current state without validation or hooks.
// Used for recovery after a restart.
func (sm *StateMachine[T]) SetCurrent(state T) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = state
}

// Initial returns the initial state.
func (sm *StateMachine[T]) Initial() T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.initialState
}

// CanTransit reports whether a transition from one state to another is valid.
func (sm *StateMachine[T]) CanTransit(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.validTransitions[from], to)
}

// CanTransitTo reports whether the current state may transition to the target.
func (sm *StateMachine[T]) CanTransitTo(to T) bool {
	return sm.CanTransit(sm.Current(), to)
}

// Is reports whether the current state matches the given state.
func (sm *StateMachine[T]) Is(state T) bool {
	return sm.Current() == state
}

// IsOneOf reports whether the current state is one of the given states.
func (sm *StateMachine[T]) IsOneOf(states ...T) bool {
	return slices.Contains(states, sm.Current())
}

// TransitTo performs a transition from the current state to the target state.
func (sm *StateMachine[T]) TransitTo(to T) error {
	sm.mu.Lock()
	from := sm.currentState
	if !slices.Contains(sm.validTransitions[from], to) {
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition: %v -> %v", from, to)
	}
	hooks := sm.onTransition
	sm.currentState = to
	sm.mu.Unlock()

	for _, h := range hooks {
		if err := h(from, to); err != nil {
			return fmt.Errorf("transition hook failed: %w", err)
		}
	}
	return nil
}
