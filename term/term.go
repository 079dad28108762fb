// Package term drives the host terminal's two modes: raw (PS/2 scancodes,
// non-blocking, signal-driven, for the running guest) and cooked (line-
// edited, blocking, restored while a DOSLINUX run-command executes).
// Grounded on the teacher's termios ioctl plumbing (term/term.go), widened
// to the KDSKBMODE/SIGIO dance the doslinux init process performs in
// term.c and vm86.c's setup_stdin().
package term

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Linux kd.h constants not exposed by golang.org/x/sys/unix (keyboard-mode
// ioctls are console-specific and outside the generic unix ABI tables).
const (
	kdSetKbdMode = 0x4B45 // KDSKBMODE
	kRaw         = 0x00   // K_RAW
	kXlate       = 0x01   // K_XLATE
)

// Term owns the saved termios so Cooked can always restore exactly what
// was there before the supervisor started.
type Term struct {
	fd     int
	saved  unix.Termios
	isMode rawMode
}

type rawMode int

const (
	modeCooked rawMode = iota
	modeRaw
)

// Open captures the current terminal settings for fd (normally stdin) so
// they can be restored by Cooked.
func Open(fd int) (*Term, error) {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("tcgetattr: %w", err)
	}

	return &Term{fd: fd, saved: *t, isMode: modeCooked}, nil
}

// IsTerminal reports whether fd 0 is attached to a real terminal.
func IsTerminal() bool {
	_, err := unix.IoctlGetTermios(0, unix.TCGETS)

	return err == nil
}

// Raw puts the terminal into raw scancode mode: KDSKBMODE=K_RAW so the
// console layer hands back PS/2 scancodes instead of translated
// keycodes, stdin made non-blocking and SIGIO-driven, and termios
// flags cleared per §4.6 of the spec this is built from.
func (t *Term) Raw() error {
	if err := unix.IoctlSetInt(t.fd, kdSetKbdMode, kRaw); err != nil {
		return fmt.Errorf("KDSKBMODE raw: %w", err)
	}

	if err := setSignalDriven(t.fd); err != nil {
		return err
	}

	raw := t.saved
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8

	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &raw); err != nil {
		return fmt.Errorf("tcsetattr raw: %w", err)
	}

	t.isMode = modeRaw

	return nil
}

// Cooked restores line-edited, blocking mode: KDSKBMODE=K_XLATE, the
// original termios, and stdin's blocking flags. Called around a DOSLINUX
// run-command; the supervisor's halt paths do not call it.
func (t *Term) Cooked() error {
	if err := unix.IoctlSetInt(t.fd, kdSetKbdMode, kXlate); err != nil {
		return fmt.Errorf("KDSKBMODE xlate: %w", err)
	}

	if _, err := unix.FcntlInt(uintptr(t.fd), unix.F_SETFL, 0); err != nil {
		return fmt.Errorf("clear O_NONBLOCK|O_ASYNC: %w", err)
	}

	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &t.saved); err != nil {
		return fmt.Errorf("tcsetattr cooked: %w", err)
	}

	t.isMode = modeCooked

	return nil
}

// setSignalDriven arranges for SIGIO to be raised, owned by this process,
// whenever fd has input ready: F_SETSIG, F_SETOWN, then O_NONBLOCK|O_ASYNC.
func setSignalDriven(fd int) error {
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETSIG, unix.SIGIO); err != nil {
		return fmt.Errorf("F_SETSIG: %w", err)
	}

	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETOWN, os.Getpid()); err != nil {
		return fmt.Errorf("F_SETOWN: %w", err)
	}

	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, unix.O_NONBLOCK|unix.O_ASYNC); err != nil {
		return fmt.Errorf("F_SETFL nonblock|async: %w", err)
	}

	return nil
}

// FixCursor reconciles the host terminal's cursor with the VGA hardware
// cursor: given the high and low bytes the caller read from the VGA
// index/data port pair (0x3D4/0x3D5, indices 0x0E/0x0F), decode
// y=raw/80 x=raw%80, and emit the ANSI CSI that moves the host cursor
// there. Grounded on vga.c's vga_cursor_pos/vga_fix_cursor.
func FixCursor(hi, lo uint8) {
	raw := uint16(hi)<<8 | uint16(lo)
	const screenWidth = 80

	y := raw / screenWidth
	x := raw % screenWidth

	fmt.Fprintf(os.Stdout, "\033[%d;%dH", y+1, x+1)
}
