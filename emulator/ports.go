// Package emulator steps over the single instruction that faulted with a
// general protection fault inside vm86 mode (VM86_UNKNOWN) — ordinary
// instructions run natively, but the ones that trap (port I/O, INT, IRET
// under the two-generation design) are decoded and carried out here in
// software.
//
// Grounded on `_examples/original_source/init/vm86.c`'s emulate_insn: the
// same opcode table, the same 0x66/0x67/0xf3 prefix handling, the same
// rep_count operand/address XOR rule. golang.org/x/arch/x86/x86asm checks
// that the bytes decode as a valid instruction (matching the teacher's
// x86asm usage in machine.go); the opcode dispatch itself is a switch on
// the opcode byte, with immediates read directly from guest memory.
package emulator

import (
	"log"

	"github.com/dosvm86/supervisor/ioport"
	"github.com/dosvm86/supervisor/keyboard"
)

// Ports is the I/O side-table a Step call reads/writes through: the PIC
// EOI swallow, the keyboard controller's port 0x60/0x64 passthrough, and
// finally real hardware via ioport for anything else.
type Ports struct {
	Keyboard *keyboard.Controller
}

const (
	portPIC1Command = 0x20
	portKbdData      = 0x60
	portKbdStatus    = 0x64
)

func (p *Ports) inb(port uint16, cs, ip uint16) uint8 {
	switch port {
	case portKbdData:
		if p.Keyboard != nil {
			return p.Keyboard.ReadData()
		}
	case portKbdStatus:
		if p.Keyboard != nil {
			return p.Keyboard.StatusByte()
		}
	}

	ioport.LogIfUnlisted("in", port, 0, cs, ip)

	return ioport.Inb(port)
}

func (p *Ports) outb(port uint16, v uint8, cs, ip uint16) {
	if port == portPIC1Command && v == 0x20 {
		// EOI: the kernel's own PIC already retired the IRQ on our
		// behalf by the time vm86 hands control back; nothing to do.
		return
	}

	ioport.LogIfUnlisted("out", port, uint32(v), cs, ip)
	ioport.Outb(port, v)
}

func (p *Ports) inw(port uint16, cs, ip uint16) uint16 {
	ioport.LogIfUnlisted("in", port, 0, cs, ip)

	return ioport.Inw(port)
}

func (p *Ports) outw(port uint16, v uint16, cs, ip uint16) {
	ioport.LogIfUnlisted("out", port, uint32(v), cs, ip)
	ioport.Outw(port, v)
}

func (p *Ports) ind(port uint16, cs, ip uint16) uint32 {
	ioport.LogIfUnlisted("in", port, 0, cs, ip)

	return ioport.Inl(port)
}

func (p *Ports) outd(port uint16, v uint32, cs, ip uint16) {
	ioport.LogIfUnlisted("out", port, v, cs, ip)
	ioport.Outl(port, v)
}

// logUnknown is called when Step cannot decode the instruction, when the
// opcode is not one Step emulates, or on HLT with IF=0; the supervisor
// treats each of these as fatal (matching panic.c's "GPF'd on an
// instruction we don't emulate" path).
func logUnknown(cs, ip uint16, b byte) {
	log.Printf("emulator: unrecognized opcode %#02x at %04x:%04x", b, cs, ip)
}
