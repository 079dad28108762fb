package emulator_test

import (
	"testing"

	"github.com/dosvm86/supervisor/emulator"
	"github.com/dosvm86/supervisor/interrupt"
	"github.com/dosvm86/supervisor/keyboard"
	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/vm86"
)

// newEnv sets up an anonymous low-memory mapping and a register block
// with CS:IP pointed at the instruction under test. Port I/O in these
// tests is routed at 0x60/0x64 (the keyboard controller) or 0x20 (the PIC
// EOI swallow) so nothing here executes a real IN/OUT against hardware,
// which would require root and a raised IOPL (see machine_test.go in the
// corpus for the analogous "Skipping test since we are not root" guard).
func newEnv(t *testing.T) (*linmem.Memory, *vm86.GuestRegisters, *emulator.Ports) {
	t.Helper()

	mem, err := linmem.MapAnonymous()
	if err != nil {
		t.Fatalf("MapAnonymous: %v", err)
	}

	regs := vm86.NewGuestRegisters(&vm86.Regs{})
	ports := &emulator.Ports{Keyboard: keyboard.NewController(keyboard.New())}

	return mem, regs, ports
}

func TestStepINSBFromKeyboardPort(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	kb := keyboard.New()
	ctrl := keyboard.NewController(kb)
	ctrl.Feed(0x42)
	ports.Keyboard = ctrl

	mem.Poke8(0x1000, 0x0000, 0x6c) // INSB
	regs.SetCS(0x1000)
	regs.SetIP(0)
	regs.EDX.SetWord(0x0060)
	regs.EDI.SetWord(0x0200)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got := mem.Peek8(regs.ES(), 0x0200); got != 0x42 {
		t.Fatalf("got ES:DI=%#02x, want 0x42", got)
	}

	if regs.EDI.Word() != 0x0201 {
		t.Fatalf("EDI not advanced: got %#04x", regs.EDI.Word())
	}

	if regs.IP() != 1 {
		t.Fatalf("IP not advanced past INSB: got %#04x", regs.IP())
	}
}

func TestStepRepInsbConsumesCX(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	kb := keyboard.New()
	ctrl := keyboard.NewController(kb)
	ctrl.Feed(0x11)
	ports.Keyboard = ctrl

	mem.Poke8(0x1000, 0x0000, 0xf3) // REP
	mem.Poke8(0x1000, 0x0001, 0x6c) // INSB
	regs.SetCS(0x1000)
	regs.SetIP(0)
	regs.EDX.SetWord(0x0060)
	regs.EDI.SetWord(0x0300)
	regs.ECX.SetWord(3)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if regs.ECX.Word() != 0 {
		t.Fatalf("REP should zero CX when it completes, got %#04x", regs.ECX.Word())
	}

	if regs.EDI.Word() != 0x0303 {
		t.Fatalf("EDI should advance by 3, got %#04x", regs.EDI.Word())
	}
}

func TestStepOutbPICEOISwallowed(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	mem.Poke8(0x2000, 0x0010, 0xe6) // OUTB imm8
	mem.Poke8(0x2000, 0x0011, 0x20) // port 0x20
	regs.SetCS(0x2000)
	regs.SetIP(0x0010)
	regs.EAX.SetByte(0x20)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if regs.IP() != 0x0012 {
		t.Fatalf("IP not advanced past 2-byte OUTB imm8: got %#04x", regs.IP())
	}
}

func TestStepIntImm8PushesFrameAndVectors(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	mem.Poke16(0, 0x21*4, 0x5678)   // IVT[0x21] offset
	mem.Poke16(0, 0x21*4+2, 0x1234) // IVT[0x21] segment

	mem.Poke8(0x3000, 0x0000, 0xcd) // INT imm8
	mem.Poke8(0x3000, 0x0001, 0x21) // vector 0x21
	regs.SetCS(0x3000)
	regs.SetIP(0)
	regs.SetSS(0x4000)
	regs.ESP.SetWord(0x0100)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if regs.CS() != 0x1234 || regs.IP() != 0x5678 {
		t.Fatalf("got CS:IP=%04x:%04x, want 1234:5678", regs.CS(), regs.IP())
	}

	if regs.ESP.Word() != 0x00FA {
		t.Fatalf("got SP=%#04x, want 0x00fa (3 pushes)", regs.ESP.Word())
	}
}

func TestStepRejectsDroppedCLI(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	mem.Poke8(0x5000, 0, 0xfa) // CLI - dropped under the two-generation design
	regs.SetCS(0x5000)
	regs.SetIP(0)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err == nil {
		t.Fatalf("Step should reject CLI as unrecognized under the newer kernel generation")
	}
}

func TestStepHaltWithIFSetAdvancesIP(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	mem.Poke8(0x6000, 0, 0xf4) // HLT
	regs.SetCS(0x6000)
	regs.SetIP(0)
	regs.SetIF(true)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if regs.IP() != 1 {
		t.Fatalf("IP not advanced past HLT: got %#04x", regs.IP())
	}
}

func TestStepHaltWithIFClearIsFatal(t *testing.T) {
	t.Parallel()

	mem, regs, ports := newEnv(t)

	mem.Poke8(0x6000, 0, 0xf4) // HLT
	regs.SetCS(0x6000)
	regs.SetIP(0)
	regs.SetIF(false)

	if err := emulator.Step(mem, regs, &interrupt.PendingSlot{}, ports); err == nil {
		t.Fatalf("Step should reject HLT with IF=0 as a fatal guest error")
	}
}
