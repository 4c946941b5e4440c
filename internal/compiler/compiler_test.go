package compiler

import (
	"errors"
	"math"
	"testing"

	"github.com/aparx/jsonski/internal/dfa"
)

func TestCompileSingleKey(t *testing.T) {
	d, err := Compile("$.b")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := d.TypeExpectedInObj(dfa.StartState); got != dfa.TypePrimitive {
		t.Fatalf("TypeExpectedInObj(start) = %v, want primitive", got)
	}
	next := d.GetNextState(dfa.StartState, []byte("b"))
	if next == dfa.UnmatchedState {
		t.Fatal("GetNextState(start, \"b\") = unmatched")
	}
	if !d.IsAccept(next) {
		t.Fatalf("state %d should be accepting", next)
	}
}

func TestCompileDottedChain(t *testing.T) {
	d, err := Compile("$.a.b.c")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	s1 := dfa.StartState
	if got := d.TypeExpectedInObj(s1); got != dfa.TypeObject {
		t.Fatalf("state1 TypeExpectedInObj = %v, want object", got)
	}
	s2 := d.GetNextState(s1, []byte("a"))
	if s2 == dfa.UnmatchedState {
		t.Fatal("key \"a\" unmatched")
	}
	if got := d.TypeExpectedInObj(s2); got != dfa.TypeObject {
		t.Fatalf("state2 TypeExpectedInObj = %v, want object", got)
	}
	s3 := d.GetNextState(s2, []byte("b"))
	if s3 == dfa.UnmatchedState {
		t.Fatal("key \"b\" unmatched")
	}
	if got := d.TypeExpectedInObj(s3); got != dfa.TypePrimitive {
		t.Fatalf("state3 TypeExpectedInObj = %v, want primitive", got)
	}
	s4 := d.GetNextState(s3, []byte("c"))
	if s4 == dfa.UnmatchedState {
		t.Fatal("key \"c\" unmatched")
	}
	if !d.IsAccept(s4) {
		t.Fatalf("state %d should be accepting", s4)
	}
	if wrong := d.GetNextState(s2, []byte("x")); wrong != dfa.UnmatchedState {
		t.Fatalf("wrong key should not match, got state %d", wrong)
	}
}

func TestCompileTrailingSlice(t *testing.T) {
	d, err := Compile("$.arr[1:4]")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	s1 := dfa.StartState
	if got := d.TypeExpectedInObj(s1); got != dfa.TypeArray {
		t.Fatalf("state1 TypeExpectedInObj = %v, want array", got)
	}
	container := d.GetNextState(s1, []byte("arr"))
	if container == dfa.UnmatchedState {
		t.Fatal("key \"arr\" unmatched")
	}
	elem := d.GetNextStateNoKey(container)
	if elem == dfa.UnmatchedState {
		t.Fatal("container state has no no-key transition")
	}
	if !d.HasConstraint(elem) {
		t.Fatalf("element state %d should carry a constraint", elem)
	}
	c, _ := d.Constraint(elem)
	if c.Start != 1 || c.End != 4 {
		t.Fatalf("constraint = %+v, want [1,4)", c)
	}
	if got := d.TypeExpectedInArr(elem); got != dfa.TypePrimitive {
		t.Fatalf("element TypeExpectedInArr = %v, want primitive", got)
	}
	if !d.IsAccept(elem) {
		t.Fatal("element state should be accepting")
	}
}

func TestCompileOpenSlice(t *testing.T) {
	d, err := Compile("$.arr[1:]")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	container := d.GetNextState(dfa.StartState, []byte("arr"))
	elem := d.GetNextStateNoKey(container)
	c, ok := d.Constraint(elem)
	if !ok {
		t.Fatal("missing constraint")
	}
	if c.Start != 1 || c.End != math.MaxInt {
		t.Fatalf("constraint = %+v, want [1, MaxInt)", c)
	}
}

func TestCompileIndexThenKey(t *testing.T) {
	d, err := Compile("$.arr[1].k")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	container := d.GetNextState(dfa.StartState, []byte("arr"))
	elem := d.GetNextStateNoKey(container)
	c, ok := d.Constraint(elem)
	if !ok || c.Start != 1 || c.End != 2 {
		t.Fatalf("constraint = %+v ok=%v, want [1,2)", c, ok)
	}
	if got := d.TypeExpectedInArr(elem); got != dfa.TypeObject {
		t.Fatalf("element TypeExpectedInArr = %v, want object", got)
	}
	// elem doubles as the key-dispatch state for the object nested in
	// that array element.
	if got := d.TypeExpectedInObj(elem); got != dfa.TypePrimitive {
		t.Fatalf("element TypeExpectedInObj = %v, want primitive", got)
	}
	final := d.GetNextState(elem, []byte("k"))
	if final == dfa.UnmatchedState {
		t.Fatal("key \"k\" unmatched")
	}
	if !d.IsAccept(final) {
		t.Fatal("final state should be accepting")
	}
}

func TestCompileKeyThenSingleIndex(t *testing.T) {
	d, err := Compile("$.a[2]")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	container := d.GetNextState(dfa.StartState, []byte("a"))
	elem := d.GetNextStateNoKey(container)
	c, ok := d.Constraint(elem)
	if !ok || c.Start != 2 || c.End != 3 {
		t.Fatalf("constraint = %+v ok=%v, want [2,3)", c, ok)
	}
	if !d.IsAccept(elem) {
		t.Fatal("element state should be accepting")
	}
}

func TestCompileConsecutiveBrackets(t *testing.T) {
	d, err := Compile("$.m[0][1]")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	container := d.GetNextState(dfa.StartState, []byte("m"))
	outer := d.GetNextStateNoKey(container)
	c, ok := d.Constraint(outer)
	if !ok || c.Start != 0 || c.End != 1 {
		t.Fatalf("outer constraint = %+v ok=%v, want [0,1)", c, ok)
	}
	if got := d.TypeExpectedInArr(outer); got != dfa.TypeArray {
		t.Fatalf("outer TypeExpectedInArr = %v, want array", got)
	}
	inner := d.GetNextStateNoKey(outer)
	if inner == dfa.UnmatchedState {
		t.Fatal("outer has no no-key transition into inner")
	}
	c2, ok := d.Constraint(inner)
	if !ok || c2.Start != 1 || c2.End != 2 {
		t.Fatalf("inner constraint = %+v ok=%v, want [1,2)", c2, ok)
	}
	if !d.IsAccept(inner) {
		t.Fatal("inner element state should be accepting")
	}
}

func TestCompileMalformed(t *testing.T) {
	cases := []string{
		"",
		"$",
		"a.b",
		"$..a",
		"$.a[",
		"$.a[]",
		"$.a[x]",
		"$.a[1:0]",
		"$.a[:1]",
		"$.a[1:2:3]",
		"$.a[-1]",
	}
	for _, path := range cases {
		t.Run(path, func(t *testing.T) {
			_, err := Compile(path)
			if err == nil {
				t.Fatalf("Compile(%q) = nil error, want malformed-path error", path)
			}
			var malformed *ErrMalformedPath
			if !errors.As(err, &malformed) {
				t.Fatalf("Compile(%q) error = %v (%T), want *ErrMalformedPath", path, err, err)
			}
		})
	}
}
