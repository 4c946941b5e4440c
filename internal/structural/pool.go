package structural

import "sync"

// indexPool recycles *Index values across Evaluator.Run calls, mirroring
// the teacher's scanner/token pools: a query engine call builds exactly
// one Index per record and has no further use for it once the run
// returns.
var indexPool = sync.Pool{
	New: func() any { return &Index{} },
}

// Get returns a pooled Index rebound to data. Callers must call Put when
// done with it.
func Get(data []byte) *Index {
	idx := indexPool.Get().(*Index)
	idx.Reset(data)
	return idx
}

// Put returns idx to the pool. idx must not be used again afterward.
func Put(idx *Index) {
	idx.data = nil
	indexPool.Put(idx)
}
