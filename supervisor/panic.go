package supervisor

import (
	"log"
	"os"
	"time"
)

// haltForever never returns: if this process is pid 1, exiting would
// panic the kernel, so it sleeps forever instead; otherwise it exits
// non-zero. Grounded on panic.c's halt().
func haltForever() {
	if os.Getpid() == 1 {
		for {
			time.Sleep(time.Hour)
		}
	}

	os.Exit(1)
}

// fatalf reports a host-facility failure (a syscall that should not have
// failed) and halts. Grounded on panic.c's fatal(): the host environment
// itself is broken, not the guest.
func fatalf(format string, args ...interface{}) {
	log.Printf("fatal: "+format, args...)
	haltForever()
}

// panicf reports a guest-programmer error (an instruction or interrupt
// this supervisor does not and will not emulate) and halts. Grounded on
// panic.c's panic(): the guest did something we've decided not to
// support, as distinct from a host facility failing.
func panicf(format string, args ...interface{}) {
	log.Printf("panic: "+format, args...)
	haltForever()
}
