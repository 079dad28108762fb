package supervisor

import (
	"log"

	"golang.org/x/sys/unix"

	"github.com/dosvm86/supervisor/interrupt"
	"github.com/dosvm86/supervisor/keyboard"
)

// stdinFD is the only fd term.Raw ever signal-drives or makes
// non-blocking: host stdin.
const stdinFD = 0

// irqKeyboard is the guest vector IRQ1 (the keyboard controller) is wired
// to once the PIC remaps it. Grounded on vm86.c's on_sigio, which injects
// exactly this vector every time it drains a byte from stdin.
const irqKeyboard = 0x09

// feedByte pushes one raw PS/2 scancode byte through both the BIOS
// keycode translator and the legacy port 0x60/0x64 mirror, then tells the
// guest IRQ1 just fired. A byte that completes a Ctrl+Alt+Del chord halts
// the supervisor instead.
func (s *Supervisor) feedByte(b byte) {
	s.kb.Feed(b)
	s.kbCtrl.Feed(b)

	if s.kb.SoftResetFlag == keyboard.SoftResetRequested {
		log.Printf("keyboard: Ctrl+Alt+Del soft reset requested, halting")
		haltForever()
	}

	interrupt.Dispatch(s.regs, s.mem, &s.pending, irqKeyboard)
}

// drainStdinNonBlocking reads every byte currently available on stdin
// without blocking, feeding each one through the keyboard pipeline. This
// is what a SIGNAL return (stdin became readable) resolves to: vm86.c's
// on_sigio does the same read-until-EAGAIN loop from its signal handler,
// except here it runs synchronously between vm86 enters rather than in
// an actual signal context.
func (s *Supervisor) drainStdinNonBlocking() {
	var buf [64]byte

	for {
		n, err := unix.Read(stdinFD, buf[:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}

			return
		}

		if n <= 0 {
			return
		}

		for _, b := range buf[:n] {
			s.feedByte(b)
		}
	}
}

// drainStdinBlocking waits (via poll) for stdin to have at least one
// byte ready, then drains it exactly as drainStdinNonBlocking does. Used
// only by the INT 16h blocking-read suspension point: the guest asked
// for a key and there isn't one queued yet.
func (s *Supervisor) drainStdinBlocking() {
	fds := []unix.PollFd{{Fd: stdinFD, Events: unix.POLLIN}}

	for {
		n, err := unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}

			return
		}

		if n > 0 {
			s.drainStdinNonBlocking()
			return
		}
	}
}
