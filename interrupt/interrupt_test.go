package interrupt_test

import (
	"testing"

	"github.com/dosvm86/supervisor/interrupt"
	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/vm86"
)

func newEnv(t *testing.T) (*linmem.Memory, *vm86.GuestRegisters) {
	t.Helper()

	mem, err := linmem.MapAnonymous()
	if err != nil {
		t.Fatalf("MapAnonymous: %v", err)
	}

	regs := vm86.NewGuestRegisters(&vm86.Regs{})
	regs.SetCS(0x07C0)
	regs.SetIP(0x0100)
	regs.SetSS(0x0000)
	regs.ESP.SetWord(0xFFFE)
	regs.SetFlags(vm86.FlagVM | vm86.FlagIF)

	// IVT[0x21] -> 0070:1234
	mem.Poke16(0, 0x21*4, 0x1234)
	mem.Poke16(0, 0x21*4+2, 0x0070)

	return mem, regs
}

func TestDoIntPushesFrameAndVectors(t *testing.T) {
	t.Parallel()

	mem, regs := newEnv(t)
	sp0 := regs.ESP.Word()

	interrupt.DoInt(regs, mem, 0x21)

	if regs.CS() != 0x0070 || regs.IP() != 0x1234 {
		t.Errorf("CS:IP = %04x:%04x, want 0070:1234", regs.CS(), regs.IP())
	}

	if got, want := regs.ESP.Word(), sp0-6; got != want {
		t.Errorf("ESP = %#x, want %#x", got, want)
	}

	if got := mem.Peek16(regs.SS(), regs.ESP.Word()+4); got != uint16(vm86.FlagVM|vm86.FlagIF) {
		t.Errorf("pushed flags = %#x, want %#x", got, vm86.FlagVM|vm86.FlagIF)
	}

	if got := mem.Peek16(regs.SS(), regs.ESP.Word()+2); got != 0x07C0 {
		t.Errorf("pushed CS = %#x, want 0x07c0", got)
	}

	if got := mem.Peek16(regs.SS(), regs.ESP.Word()); got != 0x0100 {
		t.Errorf("pushed IP = %#x, want 0x0100", got)
	}
}

func TestDispatchDeliversImmediatelyWhenIFSet(t *testing.T) {
	t.Parallel()

	mem, regs := newEnv(t)

	var slot interrupt.PendingSlot

	interrupt.Dispatch(regs, mem, &slot, 0x21)

	if !slot.Empty() {
		t.Errorf("slot should stay empty when IF=1, interrupt delivers immediately")
	}

	if regs.CS() != 0x0070 || regs.IP() != 0x1234 {
		t.Errorf("CS:IP = %04x:%04x, want 0070:1234", regs.CS(), regs.IP())
	}
}

func TestDispatchLatchesWhenIFClear(t *testing.T) {
	t.Parallel()

	mem, regs := newEnv(t)
	regs.SetIF(false)

	var slot interrupt.PendingSlot

	interrupt.Dispatch(regs, mem, &slot, 0x21)

	if slot.Empty() {
		t.Fatalf("slot should latch the vector when IF=0")
	}

	if regs.CS() == 0x0070 {
		t.Errorf("interrupt must not deliver while IF=0")
	}

	interrupt.DispatchPending(regs, mem, &slot)

	if !slot.Empty() {
		t.Errorf("DispatchPending should drain the slot")
	}

	if regs.CS() != 0x0070 || regs.IP() != 0x1234 {
		t.Errorf("CS:IP after DispatchPending = %04x:%04x, want 0070:1234", regs.CS(), regs.IP())
	}
}

func TestPop16UnwindsDoIntPush(t *testing.T) {
	t.Parallel()

	mem, regs := newEnv(t)
	origIP, origCS, origFlags := regs.IP(), regs.CS(), regs.Flags()

	interrupt.DoInt(regs, mem, 0x21)

	ip := interrupt.Pop16(regs, mem)
	cs := interrupt.Pop16(regs, mem)
	flags := interrupt.Pop16(regs, mem)

	if ip != origIP || cs != origCS || flags != uint16(origFlags) {
		t.Errorf("popped (ip,cs,flags) = (%#x,%#x,%#x), want (%#x,%#x,%#x)",
			ip, cs, flags, origIP, origCS, uint16(origFlags))
	}
}
