// Package supervisor implements the main VM86 run loop: kernel entry,
// reason dispatch, IOPL discipline, and the cursor fix-up, tying
// together vm86, linmem, interrupt, emulator, and keyboard. Grounded on
// `_examples/original_source/init/vm86.c`'s vm86_run, generalized from
// its single switch/case loop into named per-reason methods so each can
// carry its own doc comment and be tested independently.
package supervisor

import (
	"errors"
	"log"

	"github.com/dosvm86/supervisor/emulator"
	"github.com/dosvm86/supervisor/interrupt"
	"github.com/dosvm86/supervisor/ioport"
	"github.com/dosvm86/supervisor/keyboard"
	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/term"
	"github.com/dosvm86/supervisor/vm86"
)

// ErrGPF is returned (and treated as fatal by the caller) when the
// emulator can't carry out a GPF'd instruction.
var ErrGPF = errors.New("supervisor: unemulated GPF")

// Config seeds a Boot call: everything the spec's "Initialization
// contract" says a caller must supply, plus the things this port chose
// to make host-configurable (low-memory device path, DOSLINUX's shell,
// an optional instruction trace cadence).
type Config struct {
	// DevMemPath is the low-memory device to map (normally /dev/mem).
	DevMemPath string

	// ShellPath is the host shell DOSLINUX run-command execs.
	ShellPath string

	// TraceEvery, when non-zero, logs every Nth emulated GPF instruction
	// with its CS:IP. Zero disables tracing. Grounded on the teacher's
	// -T/TraceCount flag, repurposed from vcpu-step tracing to
	// instruction-emulation tracing.
	TraceEvery int
}

// sigFlag is the minimal interface this package needs from the sigio
// package, narrowed so tests can substitute a fake without pulling in
// real signal handling.
type sigFlag interface {
	Test() bool
	Clear()
}

// Supervisor is one running VM86 task: the shared low-memory mapping,
// the kernel register block, the keyboard and its host-side SIGIO
// plumbing, and the pending hardware-interrupt slot.
type Supervisor struct {
	mem *linmem.Memory
	tty *term.Term
	sig sigFlag

	plus *vm86.Plus
	regs *vm86.GuestRegisters

	kb        *keyboard.Keyboard
	kbCtrl    *keyboard.Controller
	ports     *emulator.Ports
	pending   interrupt.PendingSlot
	shellPath string

	traceEvery int
	traceCount int
}

// New assembles a Supervisor over an already-mapped low-memory region
// and an already-opened terminal, seeding the guest register block from
// the vm86_init record the caller laid down (per the Initialization
// contract: SS replicated into DS/ES/FS).
func New(mem *linmem.Memory, tty *term.Term, sig sigFlag, cfg Config) *Supervisor {
	init := mem.ReadInitRecord()

	plus := &vm86.Plus{}
	plus.Regs.CS = init.CS
	plus.Regs.EIP = uint32(init.IP)
	plus.Regs.EFLAGS = uint32(init.Flags)
	plus.Regs.ESP = uint32(init.SP)
	plus.Regs.SS = init.SS
	plus.Regs.DS = init.SS
	plus.Regs.ES = init.SS
	plus.Regs.FS = init.SS
	plus.CPUType = vm86.CPUType286
	plus.IntRevectored.Set(intDOSLINUX)

	kb := keyboard.New()
	kbCtrl := keyboard.NewController(kb)

	return &Supervisor{
		mem:        mem,
		tty:        tty,
		sig:        sig,
		plus:       plus,
		regs:       vm86.NewGuestRegisters(&plus.Regs),
		kb:         kb,
		kbCtrl:     kbCtrl,
		ports:      &emulator.Ports{Keyboard: kbCtrl},
		shellPath:  cfg.ShellPath,
		traceEvery: cfg.TraceEvery,
	}
}

// Run is the supervisor loop proper: it never returns. Each iteration
// lowers IOPL, enters vm86, raises IOPL, fixes up the cursor, and
// dispatches on the return reason. Grounded on vm86.c's vm86_run.
func (s *Supervisor) Run() {
	for {
		if err := vm86.LowerIOPL(); err != nil {
			fatalf("IOPL 0: %v", err)
		}

		result, err := vm86.Enter(s.plus)
		if err != nil {
			fatalf("vm86 enter: %v", err)
		}

		if err := vm86.RaiseIOPL(); err != nil {
			fatalf("IOPL 3: %v", err)
		}

		s.fixCursor()
		s.dispatch(result)
	}
}

// dispatch handles one vm86 return reason.
func (s *Supervisor) dispatch(result vm86.Result) {
	switch result.Reason {
	case vm86.ReasonSignal:
		if s.sig.Test() {
			s.sig.Clear()
			s.drainStdinNonBlocking()
		}

	case vm86.ReasonUnknown:
		s.traceCount++
		if s.traceEvery > 0 && s.traceCount%s.traceEvery == 0 {
			log.Printf("trace: GPF at %04x:%04x", s.regs.CS(), s.regs.IP())
		}

		if err := emulator.Step(s.mem, s.regs, &s.pending, s.ports); err != nil {
			panicf("%v: %v", ErrGPF, err)
		}

	case vm86.ReasonINTx:
		s.handleINTx(result.Arg)

	case vm86.ReasonSTI:
		interrupt.DispatchPending(s.regs, s.mem, &s.pending)

	case vm86.ReasonPICReturn, vm86.ReasonTrap:
		log.Printf("supervisor: reason=%v at %04x:%04x", result.Reason, s.regs.CS(), s.regs.IP())

	default:
		log.Printf("supervisor: unknown vm86 return reason %d", result.Reason)
	}
}

const (
	portVGAIndex = 0x3D4
	portVGAData  = 0x3D5

	vgaCursorHiIndex = 0x0E
	vgaCursorLoIndex = 0x0F
)

// fixCursor reads the VGA hardware cursor position registers and
// reconciles the host terminal's cursor to match. Grounded on vga.c's
// vga_cursor_pos/vga_fix_cursor.
func (s *Supervisor) fixCursor() {
	ioport.Outb(portVGAIndex, vgaCursorHiIndex)
	hi := ioport.Inb(portVGAData)

	ioport.Outb(portVGAIndex, vgaCursorLoIndex)
	lo := ioport.Inb(portVGAData)

	term.FixCursor(hi, lo)
}
