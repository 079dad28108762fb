package emulator

import (
	"errors"

	"github.com/dosvm86/supervisor/interrupt"
	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/vm86"
	"golang.org/x/arch/x86/x86asm"
)

// ErrUnrecognized is returned when the faulted instruction isn't one of
// the opcodes this emulator carries forward from the two-generation
// design (§9): CLI/STI/PUSHF/POPF were dropped there, so a guest that
// hits one of those under this supervisor gets this error instead of
// silent emulation.
var ErrUnrecognized = errors.New("emulator: unrecognized or unsupported opcode")

// maxInsnWindow bounds how many bytes Step hands x86asm.Decode: enough
// for any legal prefix+opcode+imm8 combination this emulator handles.
const maxInsnWindow = 8

// Step decodes and carries out the single instruction at the guest's
// current CS:IP that the kernel could not execute natively in vm86 mode,
// advancing IP past it. This is the GPF (VM86_UNKNOWN) handler.
func Step(mem *linmem.Memory, regs *vm86.GuestRegisters, slot *interrupt.PendingSlot, ports *Ports) error {
	cs, ip := regs.CS(), regs.IP()

	operand32, addr32, rep, consumed := decodePrefixes(mem, cs, ip)

	window := mem.Window(cs, ip+uint16(consumed), maxInsnWindow)
	if len(window) == 0 {
		logUnknown(cs, ip, 0)

		return ErrUnrecognized
	}

	if _, err := x86asm.Decode(window, 16); err != nil {
		logUnknown(cs, ip, window[0])

		return ErrUnrecognized
	}

	op := window[0]
	insnLen := uint16(consumed) + 1

	switch op {
	case 0x6c: // INSB
		repeat(regs, rep, operand32, addr32, func() {
			v := ports.inb(regs.EDX.Word(), cs, ip)
			mem.Poke8(regs.ES(), regs.EDI.Word(), v)
			regs.EDI.SetWord(regs.EDI.Word() + 1)
		})
		regs.AdvanceIP(insnLen)

	case 0x6d: // INSW/INSD
		repeat(regs, rep, operand32, addr32, func() {
			if operand32 {
				v := ports.ind(regs.EDX.Word(), cs, ip)
				mem.Poke32(regs.ES(), regs.EDI.Word(), v)
				regs.EDI.SetWord(regs.EDI.Word() + 4)
			} else {
				v := ports.inw(regs.EDX.Word(), cs, ip)
				mem.Poke16(regs.ES(), regs.EDI.Word(), v)
				regs.EDI.SetWord(regs.EDI.Word() + 2)
			}
		})
		regs.AdvanceIP(insnLen)

	case 0xcd: // INT imm8
		vector := mem.Peek8(cs, ip+uint16(consumed)+1)
		regs.AdvanceIP(insnLen + 1)
		interrupt.DoInt(regs, mem, vector)

	case 0xcf: // IRET
		newIP := interrupt.Pop16(regs, mem)
		newCS := interrupt.Pop16(regs, mem)
		newFlags := interrupt.Pop16(regs, mem)

		regs.SetIP(newIP)
		regs.SetCS(newCS)
		regs.SetFlags(regs.Flags()&0xFFFF0000 | uint32(newFlags))

		if regs.IF() {
			interrupt.DispatchPending(regs, mem, slot)
		}

	case 0xe4: // INB imm8
		port := uint16(mem.Peek8(cs, ip+uint16(consumed)+1))
		regs.EAX.SetByte(ports.inb(port, cs, ip))
		regs.AdvanceIP(insnLen + 1)

	case 0xe5: // INW/IND imm8
		port := uint16(mem.Peek8(cs, ip+uint16(consumed)+1))

		if operand32 {
			regs.EAX.SetDword(ports.ind(port, cs, ip))
		} else {
			regs.EAX.SetWord(ports.inw(port, cs, ip))
		}

		regs.AdvanceIP(insnLen + 1)

	case 0xe6: // OUTB imm8
		port := uint16(mem.Peek8(cs, ip+uint16(consumed)+1))
		ports.outb(port, regs.EAX.Byte(), cs, ip)
		regs.AdvanceIP(insnLen + 1)

	case 0xe7: // OUTW/OUTD imm8
		port := uint16(mem.Peek8(cs, ip+uint16(consumed)+1))

		if operand32 {
			ports.outd(port, regs.EAX.Dword(), cs, ip)
		} else {
			ports.outw(port, regs.EAX.Word(), cs, ip)
		}

		regs.AdvanceIP(insnLen + 1)

	case 0xec: // INB DX
		regs.EAX.SetByte(ports.inb(regs.EDX.Word(), cs, ip))
		regs.AdvanceIP(insnLen)

	case 0xed: // INW/IND DX
		if operand32 {
			regs.EAX.SetDword(ports.ind(regs.EDX.Word(), cs, ip))
		} else {
			regs.EAX.SetWord(ports.inw(regs.EDX.Word(), cs, ip))
		}

		regs.AdvanceIP(insnLen)

	case 0xee: // OUTB DX
		ports.outb(regs.EDX.Word(), regs.EAX.Byte(), cs, ip)
		regs.AdvanceIP(insnLen)

	case 0xef: // OUTW/OUTD DX
		if operand32 {
			ports.outd(regs.EDX.Word(), regs.EAX.Dword(), cs, ip)
		} else {
			ports.outw(regs.EDX.Word(), regs.EAX.Word(), cs, ip)
		}

		regs.AdvanceIP(insnLen)

	case 0xf4: // HLT
		// A halted guest can only ever resume via an interrupt, so HLT with
		// IF=0 can never make progress again. Treat that as the fatal guest
		// error it is rather than silently parking the guest forever.
		if !regs.IF() {
			logUnknown(cs, ip, op)

			return ErrUnrecognized
		}

		regs.AdvanceIP(insnLen)

	default:
		// 0xfa (CLI), 0xfb (STI), 0x9c (PUSHF), 0x9d (POPF): carried by the
		// kernel natively under the newer two-generation design (§9) this
		// supervisor implements, so a GPF on one of these here means the
		// kernel's declared CPU type regressed to the older, fully-emulated
		// generation. Treat as unrecognized rather than silently emulating
		// stale semantics.
		logUnknown(cs, ip, op)

		return ErrUnrecognized
	}

	regs.MaskReservedFlags()

	return nil
}

// decodePrefixes walks 0x66 (operand-size override), 0x67 (address-size
// override) and 0xf3 (REP) bytes ahead of the real opcode, mirroring
// vm86.c's prefix: goto loop. Returns whether a 32-bit operand override,
// a 32-bit address override and a rep were seen, and how many prefix
// bytes were consumed.
func decodePrefixes(mem *linmem.Memory, cs, ip uint16) (operand32, addr32, rep bool, consumed uint16) {
	for {
		switch mem.Peek8(cs, ip+consumed) {
		case 0x66:
			operand32 = true
			consumed++
		case 0x67:
			addr32 = true
			consumed++
		case 0xf3:
			rep = true
			consumed++
		default:
			return operand32, addr32, rep, consumed
		}
	}
}

// repeat runs blk rep_count times per vm86.c's rep_count: operand size
// XOR address size selects ECX (dword) vs CX (word) as the counter, and
// ECX/CX is left at zero after a REP-prefixed instruction regardless of
// how many iterations ran (matching the C macro's post-loop assignment).
func repeat(regs *vm86.GuestRegisters, rep, operand32, addr32 bool, blk func()) {
	if !rep {
		blk()

		return
	}

	var count uint32
	if operand32 != addr32 {
		count = regs.ECX.Dword()
	} else {
		count = uint32(regs.ECX.Word())
	}

	for ; count > 0; count-- {
		blk()
	}

	regs.ECX.SetDword(0)
}
