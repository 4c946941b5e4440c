// Package jsonski evaluates a single compiled JSONPath-like query against
// many JSON records without ever building a general-purpose parse tree: a
// Structural Index reduces each record to a handful of per-window
// bitmaps, and a DFA-driven Query Engine walks those bitmaps directly,
// skipping whole subtrees the query has no interest in by brace/bracket
// balance alone.
package jsonski

import (
	"sync"

	"github.com/aparx/jsonski/internal/compiler"
	"github.com/aparx/jsonski/internal/dfa"
	"github.com/aparx/jsonski/internal/engine"
)

// Evaluator holds one compiled query, ready to run against any number of
// records. It is not safe for concurrent use by multiple goroutines; keep
// one Evaluator per goroutine, or take one from a Pool.
type Evaluator struct {
	eng  *engine.Engine
	path string
}

// Option configures an Evaluator at construction time, in the
// functional-options shape used elsewhere in the corpus for compiled-query
// constructors.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth overrides the default container-nesting depth an Evaluator
// will follow along a matched path before returning ErrStackOverflow. The
// default, dfa.DefaultMaxDepth, is generous enough for any record that
// isn't deliberately adversarial.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// New compiles path and returns an Evaluator ready to run it against
// records. path follows the dotted-key / bracket-index subset of
// JSONPath: "$.a.b[0].c", "$.arr[1:4]", "$.arr[2:]".
func New(path string, opts ...Option) (*Evaluator, error) {
	automaton, err := compiler.Compile(path)
	if err != nil {
		return nil, wrapCompileErr(err)
	}
	o := options{maxDepth: dfa.DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return &Evaluator{eng: engine.New(automaton, o.maxDepth), path: path}, nil
}

// Release returns the Evaluator to the package-level Pool it was drawn
// from, matching the teacher's Release/release naming for its pooled
// scanner and encoder/decoder types. Calling Release on an Evaluator that
// was constructed with New directly, rather than taken from Pool, is
// harmless: it joins that query's pool if Pool.Get has already created
// one, and is otherwise discarded.
func (e *Evaluator) Release() {
	Pool.Put(e.path, e)
}

// Run evaluates the Evaluator's query against record and returns the byte
// offset, within record, of every value the query selected, in document
// order. record should already be padded to a 64-byte boundary (see Pad);
// Run pads a copy internally if it is not, so callers that evaluate many
// queries against the same record should pad once up front and reuse the
// padded slice.
func (e *Evaluator) Run(record []byte) ([]int, error) {
	return e.eng.Run(Pad(record))
}

// Count is a convenience wrapper around Run for callers that only need to
// know how many values matched, not where.
func (e *Evaluator) Count(record []byte) (uint64, error) {
	offsets, err := e.Run(record)
	if err != nil {
		return 0, err
	}
	return uint64(len(offsets)), nil
}

// pool recycles Evaluators for a fixed query, mirroring the teacher's
// scanner/decoder sync.Pool usage. Because an Evaluator is bound to one
// compiled query, the pool key is the query string.
type pool struct {
	mu      sync.Mutex
	byQuery map[string]*sync.Pool
}

// Pool is a package-level registry of per-query Evaluator pools, for
// servers that evaluate the same small set of queries against a high
// volume of records and want to avoid reallocating the Engine's internal
// buffers on every request.
var Pool = &pool{byQuery: make(map[string]*sync.Pool)}

// Get returns a pooled Evaluator for path, compiling and caching a fresh
// pool for that path on first use.
func (p *pool) Get(path string) (*Evaluator, error) {
	p.mu.Lock()
	sp, ok := p.byQuery[path]
	if !ok {
		sp = &sync.Pool{New: func() any {
			ev, err := New(path)
			if err != nil {
				return err
			}
			return ev
		}}
		p.byQuery[path] = sp
	}
	p.mu.Unlock()

	switch v := sp.Get().(type) {
	case *Evaluator:
		return v, nil
	case error:
		return nil, v
	default:
		panic("jsonski: unreachable pool value type")
	}
}

// Put returns ev to the pool it was drawn from for query path. Evaluator
// itself carries no per-record state between Run calls, so Put never
// needs to reset anything before returning it.
func (p *pool) Put(path string, ev *Evaluator) {
	p.mu.Lock()
	sp := p.byQuery[path]
	p.mu.Unlock()
	if sp != nil {
		sp.Put(ev)
	}
}
