// Package probe implements the `probe` subcommand: a diagnostic check
// that the host can actually run this supervisor, grounded on the
// teacher's probe/cpuid.go — open the resource the supervisor depends on,
// exercise it minimally, and print a human-readable capability report.
// Where the teacher opens /dev/kvm and prints supported CPUID leaves,
// this probes IOPL privilege (CAP_SYS_RAWIO) and whether stdin is a
// terminal; it does not invoke the vm86(2) syscall.
package probe

import (
	"fmt"
	"os"

	"github.com/dosvm86/supervisor/vm86"
	"golang.org/x/sys/unix"
)

// Capabilities raises then immediately lowers IOPL (the supervisor's
// hard privilege dependency, CAP_SYS_RAWIO) and reports whether stdin is
// a real terminal (the raw-mode keyboard path's dependency), printing a
// line per check. Actually invoking vm86(2) is left to the boot
// subcommand's first Enter, which needs a prepared guest to be
// meaningful; this probe only validates host privilege.
func Capabilities() error {
	if err := vm86.RaiseIOPL(); err != nil {
		return fmt.Errorf("IOPL 3: %w (need CAP_SYS_RAWIO)", err)
	}

	fmt.Fprintln(os.Stdout, "IOPL 3: ok")

	if err := vm86.LowerIOPL(); err != nil {
		return fmt.Errorf("IOPL 0: %w", err)
	}

	fmt.Fprintln(os.Stdout, "IOPL 0: ok")

	if _, err := unix.IoctlGetTermios(0, unix.TCGETS); err != nil {
		fmt.Fprintf(os.Stdout, "stdin is not a terminal: %v\n", err)
	} else {
		fmt.Fprintln(os.Stdout, "stdin: terminal")
	}

	fmt.Fprintln(os.Stdout, "vm86(2) available: presence is confirmed by the boot subcommand's first Enter; this probe only validates host privilege")

	return nil
}
