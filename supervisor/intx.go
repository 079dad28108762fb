package supervisor

import (
	"log"

	"github.com/dosvm86/supervisor/interrupt"
)

// handleINTx services a VM86_INTx return: the guest executed `INT imm8`
// natively and the kernel traps it out to us because vector v is always
// revectored (0xE7) or simply because that's how VM86_ENTER_NO_BYPASS
// works for every software interrupt. Grounded on vm86.c's
// do_software_int and the policy table in §4.2 of the spec this is
// built from.
//
// v == 0x16 is special-cased against the synthesize default: §4.2 reads
// as "synthesize a far-call to IVT[0x16]", but the keyboard component's
// own INT 16h section spells out a complete AH dispatch table meant to
// run in the supervisor itself, and the kernel has already advanced IP
// past the INT instruction by the time VM86_INTx is reported — there is
// no "back to the trapping instruction" to return to the way a GPF has.
// This port takes the detailed, software AH-table as authoritative and
// answers INT 0x16 entirely here, never jumping through the guest's IVT
// for it. See DESIGN.md.
func (s *Supervisor) handleINTx(v uint8) {
	regs := s.regs

	switch {
	case v == intDOSLINUX:
		handleDOSLINUX(regs, s.mem, s.tty, s.shellPath)

	case v == 0x16:
		s.kb.Service(regs, s.waitForKey)

	case v == 0x15 && regs.EAX.HiByte() == 0x4F:
		s.synthesize(v)

	case v == 0x15 && regs.EAX.Word() == 0x5305:
		// APM CPU-idle probe: the guest is asking permission to halt the
		// CPU when idle. Nothing to do on a host that's already idling
		// the real CPU between VM86 entries.

	case v == 0x13 && regs.EAX.HiByte() == 0x02:
		s.synthesize(v)

	case v == 0x1A && regs.EAX.HiByte() <= 0x0F:
		s.synthesize(v)

	default:
		log.Printf("intx: unhandled vector %#02x AX=%#04x at %04x:%04x, synthesizing",
			v, regs.EAX.Word(), regs.CS(), regs.IP())
		s.synthesize(v)
	}
}

// synthesize pushes FLAGS:CS:IP and jumps to IVT[v], letting a resident
// real-mode handler (the bundled BIOS stub, or DOS's own) run natively
// inside vm86 the next time it's entered.
func (s *Supervisor) synthesize(v uint8) {
	interrupt.DoInt(s.regs, s.mem, v)
}

// waitForKey blocks (via poll) until host stdin has a byte, feeding it
// through the scancode translator and the legacy port 0x60 mirror, then
// injecting IRQ1 exactly as the main loop's SIGNAL handling does. This is
// the only suspension point INT 16h/0x00 and 0x10 use (§"Suspension
// points").
func (s *Supervisor) waitForKey() {
	s.drainStdinBlocking()
}
