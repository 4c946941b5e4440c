// Package dfa holds the data model for the compiled query automaton: states,
// their (single) outgoing transition, array-index constraints, and the
// runtime state-and-context stack that the query engine pushes and pops as
// it descends into matched children.
//
// The shape is grounded on jsonski's QueryAutomaton: a dense table of states
// indexed from 1 (state 0 is the sentinel UnmatchedState, never entered on a
// successful transition). Because the supported JSONPath subset never
// branches — each compiled segment produces exactly one outgoing edge per
// state — a state carries a single Transition record rather than a list;
// the record's ExpectedInObject and ExpectedInArray fields are populated
// independently (by different compilation steps, for different traversal
// contexts) and are read by object() and array() respectively, never both
// by the same caller.
package dfa

import "bytes"

// Type classifies what kind of JSON value a transition or array element is
// expected to be. It is the Go analogue of jsonski's OBJECT/ARRAY/PRIMITIVE/NONE.
type Type uint8

const (
	TypeNone Type = iota
	TypeObject
	TypeArray
	TypePrimitive
)

func (t Type) String() string {
	switch t {
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypePrimitive:
		return "primitive"
	default:
		return "none"
	}
}

// UnmatchedState is the sentinel "no further match possible" state. It is
// never the target of a successful transition; GetNextState and
// GetNextStateNoKey return it to mean "dead end".
const UnmatchedState = 0

// StartState is the state the engine begins a query in.
const StartState = 1

// Transition is the single outgoing edge of a state. A nil/empty Key means
// the edge requires no key to traverse — used for stepping into an array
// element, where there is no attribute name to match against.
type Transition struct {
	Key              []byte
	ExpectedInObject Type
	ExpectedInArray  Type
	Next             int
}

func (t Transition) isNoKey() bool { return len(t.Key) == 0 }

// IndexConstraint is a half-open array-slice range [Start, End). End may be
// math.MaxInt for an open-ended range ("[n:]").
type IndexConstraint struct {
	Start, End int
}

// State is one row of the dense DFA table.
type State struct {
	Trans      Transition
	Accepting  bool
	Constraint *IndexConstraint
}

// DFA is the compiled automaton. States is 1-indexed: States[0] is an unused
// placeholder so that state numbers can be used directly as slice indices.
type DFA struct {
	States []State
}

// New allocates a DFA with room for n states (not counting the state-0
// placeholder), ready for a compiler to fill in.
func New(n int) *DFA {
	return &DFA{States: make([]State, n+1)}
}

// grow extends the table so that state is a valid index, if needed.
func (d *DFA) grow(state int) {
	for len(d.States) <= state {
		d.States = append(d.States, State{})
	}
}

// UpdateTransition merges a compilation step's view of state's outgoing
// edge into whatever is already there, mirroring jsonski's
// updateStateTransInfo: key (if non-empty) and next are always applied;
// inObj/inArr are applied only when not TypeNone, so that a state reached
// via two different compilation steps (once as an array's element-type
// holder, once as the key-dispatch state for the object nested inside that
// element) ends up with both roles recorded on the one transition without
// either overwriting the other's type field.
func (d *DFA) UpdateTransition(state int, key []byte, inObj, inArr Type, next int) {
	d.grow(state)
	tr := &d.States[state].Trans
	if len(key) > 0 {
		tr.Key = key
	}
	if inObj != TypeNone {
		tr.ExpectedInObject = inObj
	}
	if inArr != TypeNone {
		tr.ExpectedInArray = inArr
	}
	tr.Next = next
}

// SetAccepting marks state as accepting: landing in it emits a match.
func (d *DFA) SetAccepting(state int, accepting bool) {
	d.grow(state)
	d.States[state].Accepting = accepting
}

// SetConstraint attaches an array-index range to state.
func (d *DFA) SetConstraint(state int, start, end int) {
	d.grow(state)
	d.States[state].Constraint = &IndexConstraint{Start: start, End: end}
}

// TypeExpectedInObj reports what attribute-value type state expects next
// while inside an object, or TypeNone if state is unmatched (the corrected
// form of jsonski's typeExpectedInObj, which returns a falsy int for the
// unmatched case instead of an explicit NONE — see spec REDESIGN FLAGS).
func (d *DFA) TypeExpectedInObj(state int) Type {
	if state == UnmatchedState || state >= len(d.States) {
		return TypeNone
	}
	return d.States[state].Trans.ExpectedInObject
}

// TypeExpectedInArr reports what element type state expects next while
// inside an array, or TypeNone if state is unmatched.
func (d *DFA) TypeExpectedInArr(state int) Type {
	if state == UnmatchedState || state >= len(d.States) {
		return TypeNone
	}
	return d.States[state].Trans.ExpectedInArray
}

// GetNextState looks up state's transition if it is keyed and key matches
// byte-exact (per spec's "key comparison is byte-exact" invariant).
// Returns UnmatchedState otherwise.
func (d *DFA) GetNextState(state int, key []byte) int {
	if state == UnmatchedState || state >= len(d.States) {
		return UnmatchedState
	}
	tr := d.States[state].Trans
	if !tr.isNoKey() && bytes.Equal(tr.Key, key) {
		return tr.Next
	}
	return UnmatchedState
}

// GetNextStateNoKey looks up state's transition if it requires no key.
// Returns UnmatchedState otherwise.
func (d *DFA) GetNextStateNoKey(state int) int {
	if state == UnmatchedState || state >= len(d.States) {
		return UnmatchedState
	}
	tr := d.States[state].Trans
	if tr.isNoKey() {
		return tr.Next
	}
	return UnmatchedState
}

// IsAccept reports whether state is accepting.
func (d *DFA) IsAccept(state int) bool {
	if state == UnmatchedState || state >= len(d.States) {
		return false
	}
	return d.States[state].Accepting
}

// HasConstraint reports whether state carries an array-index constraint.
func (d *DFA) HasConstraint(state int) bool {
	if state == UnmatchedState || state >= len(d.States) {
		return false
	}
	return d.States[state].Constraint != nil
}

// Constraint returns the array-index constraint attached to state. The
// second return value is false if state has none.
func (d *DFA) Constraint(state int) (IndexConstraint, bool) {
	if state == UnmatchedState || state >= len(d.States) {
		return IndexConstraint{}, false
	}
	c := d.States[state].Constraint
	if c == nil {
		return IndexConstraint{}, false
	}
	return *c, true
}
