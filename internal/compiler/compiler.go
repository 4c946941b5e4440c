package compiler

import "github.com/aparx/jsonski/internal/dfa"

// Compile turns a JSONPath string (the "$.key.key[n:m].key" subset
// described by the package's supported grammar) into a *dfa.DFA ready for
// the query engine to drive.
func Compile(path string) (*dfa.DFA, error) {
	segs, err := lex(path)
	if err != nil {
		return nil, err
	}
	return build(segs), nil
}

// build walks segs and emits states the way jsonski's updateQueryAutomaton
// does: a dotted key consumes one state, a key immediately followed by a
// bracket consumes two (a "container" state purely for the no-key hop into
// the array, then the "element" state that carries the index constraint),
// a bracket immediately followed by another bracket consumes one more
// (there is no separate container state, because array() performs its own
// no-key push before ever consulting the constraint), and a bracket
// immediately followed by a dotted key consumes zero new states (the key
// segment overlays Key/ExpectedInObject onto the very state the bracket
// segment already set ExpectedInArray on).
func build(segs []segment) *dfa.DFA {
	d := dfa.New(dfa.StartState)
	state := dfa.StartState

	for i, seg := range segs {
		last := i == len(segs)-1
		switch seg.kind {
		case segKey:
			switch {
			case last:
				d.UpdateTransition(state, seg.key, dfa.TypePrimitive, dfa.TypeNone, state+1)
				d.SetAccepting(state+1, true)
				state++
			case segs[i+1].kind == segIndex:
				d.UpdateTransition(state, seg.key, dfa.TypeArray, dfa.TypeNone, state+1)
				d.UpdateTransition(state+1, nil, dfa.TypeNone, dfa.TypeNone, state+2)
				state += 2
			default:
				d.UpdateTransition(state, seg.key, dfa.TypeObject, dfa.TypeNone, state+1)
				state++
			}
		case segIndex:
			d.SetConstraint(state, seg.start, seg.end)
			switch {
			case last:
				d.UpdateTransition(state, nil, dfa.TypeNone, dfa.TypePrimitive, state)
				d.SetAccepting(state, true)
			case segs[i+1].kind == segKey:
				// No new state: the following key segment writes its
				// Key/ExpectedInObject onto this same state, the way a
				// "." immediately after "[n]" does not advance
				// query_state in updateQueryAutomaton. The state ends up
				// dual-role — ExpectedInArray for array()'s own check,
				// Key/ExpectedInObject for object()'s check once array()
				// has pushed into it.
				d.UpdateTransition(state, nil, dfa.TypeNone, dfa.TypeObject, state)
			default:
				d.UpdateTransition(state, nil, dfa.TypeNone, dfa.TypeArray, state+1)
				state++
			}
		}
	}
	return d
}
