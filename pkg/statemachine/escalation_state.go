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

// RunState is the lifecycle state of one escalation run.
type RunState string

const (
	RunPending     RunState = "PENDING"
	RunStepWaiting RunState = "STEP_WAITING"
	RunStepFired   RunState = "STEP_FIRED"
	RunRepeating   RunState = "REPEATING"
	RunAcked       RunState = "ACKED"
	RunExhausted   RunState = "EXHAUSTED"
)

// ActiveRunStates are the states a run can be resumed from after a restart.
var ActiveRunStates = []RunState{RunPending, RunStepWaiting, RunStepFired, RunRepeating}

// NewEscalationStateMachine builds the run lifecycle FSM:
// PENDING -> STEP_WAITING -> STEP_FIRED -> (ACKED | REPEATING | EXHAUSTED).
// Acknowledgment is reachable from every non-terminal state.
func NewEscalationStateMachine(initial RunState) *StateMachine[RunState] {
	sm := NewWithState(initial)
	sm.Allow(RunPending, RunStepWaiting, RunAcked).
		Allow(RunStepWaiting, RunStepFired, RunAcked).
		Allow(RunStepFired, RunStepWaiting, RunRepeating, RunAcked, RunExhausted).
		Allow(RunRepeating, RunStepWaiting, RunAcked)
	return sm
}

// IsTerminal reports whether the state ends a run.
func (s RunState) IsTerminal() bool {
	return s == RunAcked || s == RunExhausted
}
