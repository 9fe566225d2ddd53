// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "fmt"

// State is the per-article position in the rewrite state machine.
type State string

const (
	StateGenerated      State = "GENERATED"
	StateAudited        State = "AUDITED"
	StateRewritePending State = "REWRITE_PENDING"
	StateApproved       State = "APPROVED"
	StateRejected       State = "REJECTED"
)

// transitions lists the legal moves. Approved and Rejected are terminal;
// a rewrite returns the article to Generated for the next round.
var transitions = map[State][]State{
	StateGenerated:      {StateAudited},
	StateAudited:        {StateRewritePending, StateApproved, StateRejected},
	StateRewritePending: {StateGenerated},
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// CanTransition reports whether moving from one state to the other is
// legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks the state of every article in a batch and rejects
// illegal transitions. An illegal move is a programming error, not a
// runtime condition, so it surfaces as an error the orchestrator treats
// as fatal.
type machine struct {
	states map[string]State
}

func newMachine() *machine {
	return &machine{states: make(map[string]State)}
}

// enter registers a new article in the Generated state.
func (m *machine) enter(id string) {
	m.states[id] = StateGenerated
}

// advance moves one article to the next state.
func (m *machine) advance(id string, to State) error {
	from, ok := m.states[id]
	if !ok {
		return fmt.Errorf("unknown article %s", id)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal transition %s -> %s for %s", from, to, id)
	}
	m.states[id] = to
	return nil
}

// state returns the current state of an article.
func (m *machine) state(id string) State {
	return m.states[id]
}

// pending returns whether any article is still non-terminal.
func (m *machine) pending() bool {
	for _, s := range m.states {
		if !s.Terminal() {
			return true
		}
	}
	return false
}
