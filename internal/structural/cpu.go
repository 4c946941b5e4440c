package structural

import "golang.org/x/sys/cpu"

// HasHardwareAcceleration reports whether the running CPU has the
// vector extensions a native carry-less-multiply implementation of
// scanQuotes would use. The portable Go implementation in this package
// does not call into any such instruction — see DESIGN.md — so this is
// informational only, surfaced for callers that log which code path a
// deployment is effectively running without one.
func HasHardwareAcceleration() bool {
	return cpu.X86.HasPCLMULQDQ || cpu.ARM64.HasPMULL
}
