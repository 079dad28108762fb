package keyboard

import (
	"log"

	"github.com/dosvm86/supervisor/vm86"
)

// translateNonExtended maps an MF-II extended keycode onto the value a
// non-enhanced (AH=0x00/0x01) INT 16h call would have returned for the
// same key, per the spec's literal translation rules:
//
//   - 0xE00D / 0xE00A (extended Enter) -> 0x1C00|AL (normal Enter's scan
//     code, same line-ending byte)
//   - 0xE02F (extended '/')            -> 0x352F (normal '/' key)
//   - any other 0xE0xx / 0xF0xx with a non-zero low byte -> AH:00, i.e.
//     the original low byte becomes the new scan code and AL is dropped
func translateNonExtended(code uint16) uint16 {
	switch code {
	case 0xE00D, 0xE00A:
		return 0x1C00 | code&0xFF
	case 0xE02F:
		return 0x352F
	}

	ah := byte(code >> 8)
	al := byte(code)

	if (ah == 0xE0 || ah == 0xF0) && al != 0 {
		return uint16(al) << 8
	}

	return code
}

// Service dispatches one INT 16h call. waitForKey, when non-nil, is
// invoked to block (polling the host and feeding scancodes) until the
// queue is non-empty or a pending condition interrupts the wait; it is
// only called by the AH=0x00/0x10 blocking read path.
func (k *Keyboard) Service(regs *vm86.GuestRegisters, waitForKey func()) {
	ah := regs.EAX.HiByte()

	switch ah {
	case 0x00: // wait for key, non-extended
		for k.Empty() && waitForKey != nil {
			waitForKey()
		}

		code, _ := k.Dequeue()
		regs.EAX.SetWord(translateNonExtended(code))

	case 0x10: // wait for key, extended (MF-II passthrough)
		for k.Empty() && waitForKey != nil {
			waitForKey()
		}

		code, _ := k.Dequeue()
		regs.EAX.SetWord(code)

	case 0x01: // peek, non-extended
		code, ok := k.Peek()
		setZF(regs, !ok)

		if ok {
			regs.EAX.SetWord(translateNonExtended(code))
		}

	case 0x11: // peek, extended
		code, ok := k.Peek()
		setZF(regs, !ok)

		if ok {
			regs.EAX.SetWord(code)
		}

	case 0x02: // shift flags
		regs.EAX.SetByte(k.Flags0)

	case 0x12: // extended shift flags
		regs.EAX.SetByte(k.Flags0)
		regs.EAX.SetHiByte(k.Flags1 & (Flags1RCtrl | Flags1RAlt))

	case 0x05: // store keycode (software injection)
		ok := k.Enqueue(regs.ECX.Word())
		if ok {
			regs.EAX.SetByte(0)
		} else {
			regs.EAX.SetByte(1)
		}

	case 0x09: // keyboard functionality reported: MF-II-ish feature byte
		regs.EAX.SetByte(0x30)

	case 0x0A: // keyboard ID
		regs.EBX.SetWord(0)

	case 0x6F: // read keyboard ID (PS/2 extension probe): stubbed, AL=0x08
		regs.EAX.SetHiByte(0x02)
		regs.EAX.SetByte(0x08)

	case 0x92: // keyboard capability check (Enhanced BIOS services present)
		regs.EAX.SetHiByte(0x80)

	case 0xA2: // CapsLock state query: unimplemented, left untouched

	default:
		// Unsupported sub-function. Leave registers untouched and log the
		// miss the way the emulator logs unlisted port I/O.
		log.Printf("int16h: unsupported AH=%#02x", ah)
	}
}

// setZF toggles EFLAGS.ZF the way the real BIOS signals peek-empty (ZF=1)
// to the caller.
func setZF(regs *vm86.GuestRegisters, on bool) {
	const flagZF = 1 << 6
	setFlagBit(regs, flagZF, on)
}

func setFlagBit(regs *vm86.GuestRegisters, bit uint32, on bool) {
	f := regs.Flags()
	if on {
		f |= bit
	} else {
		f &^= bit
	}

	regs.SetFlags(f)
}
