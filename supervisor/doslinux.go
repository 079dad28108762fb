package supervisor

import (
	"log"
	"os"
	"os/exec"

	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/term"
	"github.com/dosvm86/supervisor/vm86"
)

// intDOSLINUX is the always-revectored vector (§"Revectoring") a DOS
// guest uses to ask the host to do something only Linux can: report its
// own presence, or run a shell command.
const intDOSLINUX = 0xE7

// pspCommandTailOffset is the fixed offset of the command tail within a
// DOS Program Segment Prefix: a length byte followed by that many
// characters.
const pspCommandTailOffset = 0x80

// handleDOSLINUX services one INT 0xE7 call. AH=0x00 is a presence
// probe (AX becomes 0x0001 after IRET, per the spec's scenario 1);
// AH=0x01 reads the PSP command tail at CS:0080h, drops to cooked
// terminal mode, runs it through the host shell, and restores raw mode.
//
// The open question of whether the command tail should also honor a
// trailing CR is resolved here in favor of the PSP length byte alone
// (see DESIGN.md): a malformed length byte is still just whatever bytes
// it claims, nothing more.
func handleDOSLINUX(regs *vm86.GuestRegisters, mem *linmem.Memory, tty *term.Term, shellPath string) {
	switch regs.EAX.HiByte() {
	case 0x00:
		regs.EAX.SetWord(0x0001)

	case 0x01:
		cmdline := readCommandTail(mem, regs.CS())
		runHostCommand(tty, shellPath, cmdline)

	default:
		log.Printf("doslinux: unknown AH=%#02x at %04x:%04x", regs.EAX.HiByte(), regs.CS(), regs.IP())
	}
}

// readCommandTail reads the length-prefixed command tail out of the PSP
// at cs:0080h.
func readCommandTail(mem *linmem.Memory, cs uint16) string {
	n := mem.Peek8(cs, pspCommandTailOffset)

	buf := make([]byte, n)
	for i := uint8(0); i < n; i++ {
		buf[i] = mem.Peek8(cs, pspCommandTailOffset+1+uint16(i))
	}

	return string(buf)
}

// runHostCommand is the fork+exec+wait dance around a DOSLINUX
// run-command: cooked mode for the duration of the child (so its own
// line editing and signals behave normally), raw mode restored
// afterward regardless of how the command exited.
func runHostCommand(tty *term.Term, shellPath, cmdline string) {
	if err := tty.Cooked(); err != nil {
		fatalf("doslinux: cooked mode: %v", err)
	}

	cmd := exec.Command(shellPath, "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Printf("doslinux: %q: %v", cmdline, err)
	}

	if err := tty.Raw(); err != nil {
		fatalf("doslinux: raw mode: %v", err)
	}
}
