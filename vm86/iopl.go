package vm86

import "golang.org/x/sys/unix"

// LowerIOPL drops the host thread's I/O privilege level to 0, so that any
// guest IN/OUT executed directly (IOPL<3) traps back to the supervisor as
// a GPF instead of succeeding natively. Must be called before every Enter.
func LowerIOPL() error {
	return unix.Iopl(0)
}

// RaiseIOPL restores IOPL 3 for the host thread, so the supervisor itself
// can issue direct port I/O (cursor ports, pass-through devices) between
// vm86 entries.
func RaiseIOPL() error {
	return unix.Iopl(3)
}
