// Package engine is the Query Engine: it drives a compiled *dfa.DFA over a
// record's *structural.Index with a pair of mutually recursive procedures,
// object and array, matching jsonski's own object()/array() split. Each
// procedure reads whatever its current DFA state expects (a key's value
// type inside an object, an element's value type inside an array), and
// either records a match, descends into a nested container by pushing a
// runtime stack frame, or fast-forwards past a value that cannot possibly
// satisfy the compiled query — all without ever decoding the record into
// a general-purpose tree.
//
// Recursion depth is bounded by the length of the compiled path, not by
// the record's own nesting depth: a value the DFA has no further interest
// in is skipped by brace/bracket balance alone, never by calling object or
// array on it.
package engine

import (
	"math"
	"math/bits"

	"github.com/aparx/jsonski/internal/dfa"
	"github.com/aparx/jsonski/internal/interval"
	"github.com/aparx/jsonski/internal/structural"
)

// Engine drives one query over one record. It is not safe for concurrent
// use; see Pool for a pooled, single-goroutine-at-a-time allocation
// pattern matching the teacher's scanner/decoder pools.
type Engine struct {
	automaton *dfa.DFA
	idx       *structural.Index
	data      []byte
	stack     *dfa.Stack
	matches   []int
}

// New creates an Engine bound to automaton, ready for repeated Run calls.
func New(automaton *dfa.DFA, maxDepth int) *Engine {
	return &Engine{
		automaton: automaton,
		stack:     dfa.NewStack(maxDepth),
	}
}

// Run scans data (which must already be 64-byte aligned — see Pad) against
// the Engine's compiled automaton and returns the byte offsets of every
// value the query matched.
func (e *Engine) Run(data []byte) ([]int, error) {
	e.data = data
	e.idx = structural.Get(data)
	defer func() {
		structural.Put(e.idx)
		e.idx = nil
		e.data = nil
	}()
	e.stack.Reset()
	e.matches = e.matches[:0]

	pos := e.skipWS(0)
	if pos >= len(data) {
		return nil, nil
	}
	var err error
	switch e.data[pos] {
	case '{':
		_, err = e.object(pos)
	case '[':
		_, err = e.array(pos)
	default:
		// A bare primitive record can only ever satisfy a zero-length
		// query, which the compiler never produces; nothing to do.
	}
	if err != nil {
		return nil, err
	}
	return e.matches, nil
}

func (e *Engine) emit(pos int) { e.matches = append(e.matches, pos) }

// object processes the JSON object opening at pos (pos is the index of
// '{'), consulting the current DFA state for the single key it is looking
// for, and returns the index just past the matching '}'.
func (e *Engine) object(pos int) (int, error) {
	state := e.stack.CurState
	attrType := e.automaton.TypeExpectedInObj(state)

	cur := e.skipWS(pos + 1)
	for {
		if cur >= len(e.data) {
			return cur, ErrUnexpectedEOF
		}
		if e.data[cur] == '}' {
			return cur + 1, nil
		}
		colon := e.nextInClass(structural.Colon, cur)
		if colon == -1 {
			return cur, ErrMalformedRecord
		}
		keyStart, keyEnd, ok := e.readKeyBefore(colon)
		if !ok {
			return cur, ErrMalformedRecord
		}
		valuePos := e.skipWS(colon + 1)
		if valuePos >= len(e.data) {
			return valuePos, ErrUnexpectedEOF
		}

		next := dfa.UnmatchedState
		if attrType != dfa.TypeNone {
			next = e.automaton.GetNextState(state, e.data[keyStart:keyEnd])
		}

		afterValue, err := e.dispatchMatch(next, attrType, valuePos)
		if err != nil {
			return cur, err
		}

		cur = e.skipWS(afterValue)
		if cur >= len(e.data) {
			return cur, ErrUnexpectedEOF
		}
		switch e.data[cur] {
		case ',':
			cur = e.skipWS(cur + 1)
		case '}':
			return cur + 1, nil
		default:
			return cur, ErrMalformedRecord
		}
	}
}

// array processes the JSON array opening at pos (pos is the index of
// '['). Entering an array always performs one further no-key DFA
// transition from the state it was pushed into, landing on the state that
// carries the array's index constraint (if any) and its element type —
// jsonski's array() does the same extra hop via getNextStateNoKey before
// ever consulting hasIndexConstraints.
func (e *Engine) array(pos int) (int, error) {
	parent := e.stack.CurState
	elemState := e.automaton.GetNextStateNoKey(parent)
	elemType := e.automaton.TypeExpectedInArr(elemState)
	constraint, hasConstraint := e.automaton.Constraint(elemState)

	cur := e.skipWS(pos + 1)
	e.stack.ArrCounter = -1
	for {
		if cur >= len(e.data) {
			return cur, ErrUnexpectedEOF
		}
		if e.data[cur] == ']' {
			return cur + 1, nil
		}
		e.stack.IncrementArrCounter()
		i := e.stack.ArrCounter
		elemStart := cur

		next := dfa.UnmatchedState
		inRange := !hasConstraint || (i >= constraint.Start && i < constraint.End)
		if inRange && elemState != dfa.UnmatchedState {
			next = elemState
		}

		afterElem, err := e.dispatchMatch(next, elemType, elemStart)
		if err != nil {
			return cur, err
		}

		if hasConstraint && constraint.End != math.MaxInt && i+1 >= constraint.End {
			end := e.matchingClose(pos, structural.LBracket, structural.RBracket)
			if end == -1 {
				return cur, ErrMalformedRecord
			}
			return end + 1, nil
		}

		cur = e.skipWS(afterElem)
		if cur >= len(e.data) {
			return cur, ErrUnexpectedEOF
		}
		switch e.data[cur] {
		case ',':
			cur = e.skipWS(cur + 1)
		case ']':
			return cur + 1, nil
		default:
			return cur, ErrMalformedRecord
		}
	}
}

// dispatchMatch decides what to do with the value at valuePos given next
// (the DFA state reached by matching this attribute's key, or this
// array's element, or dfa.UnmatchedState if it wasn't a candidate at all)
// and wantType (what value type the compiled query expects here). It
// returns the index just past the value, having either emitted a match,
// recursed into it, or skipped it by structural balance alone.
func (e *Engine) dispatchMatch(next int, wantType dfa.Type, valuePos int) (int, error) {
	if next == dfa.UnmatchedState {
		return e.skipValue(valuePos)
	}
	// A terminal (PRIMITIVE-labelled) transition matches regardless of
	// the value's actual runtime type: the compiler only ever assigns
	// PRIMITIVE here because there is no further path segment to
	// constrain the type, not because the value must literally be a
	// JSON primitive.
	if wantType != dfa.TypePrimitive && e.valueTypeAt(valuePos) != wantType {
		return e.skipValue(valuePos)
	}
	if e.automaton.IsAccept(next) {
		e.emit(valuePos)
		return e.skipValue(valuePos)
	}
	return e.enterContainer(next, valuePos)
}

// enterContainer pushes a runtime stack frame for next and recurses into
// the object or array at pos, popping the frame before returning.
func (e *Engine) enterContainer(next int, pos int) (int, error) {
	if err := e.stack.Push(next); err != nil {
		return 0, err
	}
	var end int
	var err error
	switch e.valueTypeAt(pos) {
	case dfa.TypeObject:
		end, err = e.object(pos)
	case dfa.TypeArray:
		end, err = e.array(pos)
	default:
		end, err = e.skipValue(pos)
	}
	e.stack.Pop()
	return end, err
}

// valueTypeAt classifies the JSON value starting at pos.
func (e *Engine) valueTypeAt(pos int) dfa.Type {
	switch e.data[pos] {
	case '{':
		return dfa.TypeObject
	case '[':
		return dfa.TypeArray
	default:
		return dfa.TypePrimitive
	}
}

// skipValue advances past the value at pos (of any type) and returns the
// index just after it, without interpreting its contents.
func (e *Engine) skipValue(pos int) (int, error) {
	switch e.data[pos] {
	case '{':
		end := e.matchingClose(pos, structural.LBrace, structural.RBrace)
		if end == -1 {
			return pos, ErrUnexpectedEOF
		}
		return end + 1, nil
	case '[':
		end := e.matchingClose(pos, structural.LBracket, structural.RBracket)
		if end == -1 {
			return pos, ErrUnexpectedEOF
		}
		return end + 1, nil
	case '"':
		end := e.nextQuote(pos + 1)
		if end == -1 {
			return pos, ErrUnexpectedEOF
		}
		return end + 1, nil
	default:
		p := pos
		for p < len(e.data) && !isValueDelimiter(e.data[p]) {
			p++
		}
		return p, nil
	}
}

func isValueDelimiter(b byte) bool {
	switch b {
	case ',', '}', ']', ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

// matchingClose returns the position of the close-class bit that balances
// the open-class bit at pos (pos must itself be an open-class position).
// Rather than stepping to each open or close bit in turn, it popcounts
// every run of close-class bits that has no open-class bit interleaved in
// it and jumps straight to whichever one zeroes depth, the way goOverObj
// skips an entire run of sibling values with one popcount instead of
// visiting them one at a time; an interleaved open-class bit is consumed
// one at a time since it changes depth itself.
func (e *Engine) matchingClose(pos int, open, closeClass structural.Class) int {
	depth := 1
	w := pos / structural.WindowSize
	bitPos := pos%structural.WindowSize + 1
	numWindows := e.idx.NumWindows()

	for {
		if w >= numWindows {
			return -1
		}
		openWord := e.idx.Get(w, open)
		closeWord := e.idx.Get(w, closeClass)
		openPos := interval.FromPosition(openWord, bitPos)

		for {
			var closesBeforeOpen int
			if openPos == interval.NoMatch {
				closesBeforeOpen = interval.Count(closeWord, bitPos)
			} else {
				closesBeforeOpen = interval.Count(closeWord, bitPos) - interval.Count(closeWord, openPos)
			}

			if depth <= closesBeforeOpen {
				return w*structural.WindowSize + interval.NthSetBit(closeWord, bitPos, depth-1)
			}
			depth -= closesBeforeOpen

			if openPos == interval.NoMatch {
				break
			}
			depth++
			bitPos = openPos + 1
			openPos = interval.Next(openWord, openPos)
		}

		w++
		bitPos = 0
	}
}

// readKeyBefore locates the key string whose closing quote precedes colon
// (only whitespace may separate them), by walking backward through the
// Structural Index's quote bitmap to find that closing quote and its
// matching opening quote.
func (e *Engine) readKeyBefore(colon int) (start, end int, ok bool) {
	p := colon - 1
	for p >= 0 && isSpace(e.data[p]) {
		p--
	}
	if p < 0 || e.data[p] != '"' {
		return 0, 0, false
	}
	closeQuote := p
	openQuote := e.prevQuote(closeQuote - 1)
	if openQuote == -1 {
		return 0, 0, false
	}
	return openQuote + 1, closeQuote, true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func (e *Engine) skipWS(pos int) int {
	for pos < len(e.data) && isSpace(e.data[pos]) {
		pos++
	}
	return pos
}

// nextInClass returns the first position at or after pos whose bit is set
// in the named structural class, scanning across window boundaries.
func (e *Engine) nextInClass(class structural.Class, pos int) int {
	return e.scanForward(pos, func(w int) uint64 { return e.idx.Get(w, class) })
}

func (e *Engine) nextQuote(pos int) int {
	return e.scanForward(pos, e.idx.Quote)
}

func (e *Engine) scanForward(pos int, wordAt func(int) uint64) int {
	if pos >= len(e.data) {
		return -1
	}
	w := pos / structural.WindowSize
	bitPos := pos % structural.WindowSize
	n := e.idx.NumWindows()
	if p := interval.FromPosition(wordAt(w), bitPos); p != interval.NoMatch {
		return w*structural.WindowSize + p
	}
	for w++; w < n; w++ {
		if p := interval.FromStart(wordAt(w)); p != interval.NoMatch {
			return w*structural.WindowSize + p
		}
	}
	return -1
}

func (e *Engine) prevQuote(pos int) int {
	if pos < 0 {
		return -1
	}
	w := pos / structural.WindowSize
	bitPos := pos % structural.WindowSize
	if p := interval.ToPosition(e.idx.Quote(w), bitPos); p != interval.NoMatch {
		return w*structural.WindowSize + p
	}
	for w--; w >= 0; w-- {
		if word := e.idx.Quote(w); word != 0 {
			return w*structural.WindowSize + (63 - bits.LeadingZeros64(word))
		}
	}
	return -1
}
