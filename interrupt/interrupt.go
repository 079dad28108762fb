// Package interrupt implements the IVT-driven software/hardware interrupt
// injection machinery: pushing FLAGS:CS:IP and vectoring through the
// guest's interrupt vector table, plus the single-slot pending-interrupt
// hold used while the guest has interrupts disabled.
package interrupt

import (
	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/vm86"
)

// PendingSlot holds at most one hardware interrupt vector awaiting
// dispatch because the guest had IF=0 when it arrived. A second arrival
// while one is pending simply replaces it: the only producer is the
// keyboard IRQ, and a second IRQ just repeats the "data available" signal.
type PendingSlot struct {
	armed  bool
	vector uint8
}

// Empty reports whether the slot holds no pending vector. Invariant: this
// must be true whenever control returns to the guest with FLAGS.IF==1.
func (p *PendingSlot) Empty() bool { return !p.armed }

// DoInt pushes FLAGS (low 16 bits), CS, and IP onto the guest stack, then
// vectors CS:IP through IVT[v]. Used both for INT imm8 emulation and for
// "synthesizing" a BIOS call the supervisor wants to let the guest's own
// IVT-installed handler service.
func DoInt(regs *vm86.GuestRegisters, mem *linmem.Memory, v uint8) {
	push16(regs, mem, uint16(regs.Flags()))
	push16(regs, mem, regs.CS())
	push16(regs, mem, regs.IP())

	vec := mem.Vector(v)
	regs.SetCS(vec.Segment)
	regs.SetIP(vec.Offset)
}

// Dispatch delivers a hardware interrupt. If the guest currently has
// interrupts enabled it is injected immediately via DoInt; otherwise it is
// latched in slot until the guest re-enables interrupts (IRET/POPF with
// IF set, or STI).
func Dispatch(regs *vm86.GuestRegisters, mem *linmem.Memory, slot *PendingSlot, v uint8) {
	if regs.IF() {
		DoInt(regs, mem, v)

		return
	}

	slot.armed = true
	slot.vector = v
}

// DispatchPending delivers and clears any latched interrupt. Call this
// whenever the guest transitions IF 0->1 (STI, or POPF/IRET that sets IF).
func DispatchPending(regs *vm86.GuestRegisters, mem *linmem.Memory, slot *PendingSlot) {
	if !slot.armed {
		return
	}

	v := slot.vector
	slot.armed = false
	DoInt(regs, mem, v)
}

func push16(regs *vm86.GuestRegisters, mem *linmem.Memory, v uint16) {
	sp := regs.ESP.Word() - 2
	regs.ESP.SetWord(sp)
	mem.Poke16(regs.SS(), sp, v)
}

func pop16(regs *vm86.GuestRegisters, mem *linmem.Memory) uint16 {
	sp := regs.ESP.Word()
	v := mem.Peek16(regs.SS(), sp)
	regs.ESP.SetWord(sp + 2)

	return v
}

// Pop16 exposes the stack-pop primitive for IRET emulation in the
// emulator package, which needs it outside the push/DoInt pairing above.
func Pop16(regs *vm86.GuestRegisters, mem *linmem.Memory) uint16 {
	return pop16(regs, mem)
}
