// Package sigio installs the SIGIO handler the raw-mode keyboard path
// depends on: stdin delivers SIGIO whenever a scancode byte is ready
// (term.Raw arranges F_SETSIG/F_SETOWN/O_ASYNC), and the supervisor loop
// polls a flag rather than blocking on read. Grounded on vm86.c's
// on_sigio/setup_sigio: a signal handler that may touch only a single
// flag and nothing else — no allocation, no locks, no library calls that
// aren't async-signal-safe.
package sigio

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Flag is the single volatile 0/1 the spec's concurrency model allows the
// signal handler to touch. Races between Test/Clear and a concurrent
// signal are harmless: a byte that arrives between the check and the
// clear is simply picked up on the next drain.
type Flag struct {
	received int32
}

// Install arranges for SIGIO to set the flag and returns it. The
// goroutine draining the notification channel is the Go runtime's signal
// delivery path, not a foreign-language signal handler, but it keeps to
// the same discipline: it does nothing but set an atomic flag.
func Install() *Flag {
	f := &Flag{}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGIO)

	go func() {
		for range ch {
			atomic.StoreInt32(&f.received, 1)
		}
	}()

	return f
}

// Test reports whether a SIGIO has arrived since the last Clear.
func (f *Flag) Test() bool { return atomic.LoadInt32(&f.received) != 0 }

// Clear resets the flag. Call before draining stdin, not after: a byte
// that arrives after the clear sets the flag again, so it is picked up by
// this drain or the next one, whereas clearing after the drain could
// erase the signal for a byte that arrived once the drain had finished.
func (f *Flag) Clear() { atomic.StoreInt32(&f.received, 0) }
