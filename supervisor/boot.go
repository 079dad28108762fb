package supervisor

import (
	"fmt"

	"github.com/dosvm86/supervisor/linmem"
	"github.com/dosvm86/supervisor/sigio"
	"github.com/dosvm86/supervisor/term"
)

// Boot performs the full startup sequence described by the spec's
// Initialization contract — map low memory, open and raw-mode the
// terminal, install the SIGIO flag, build a Supervisor, and run it — and
// never returns on success (Run is an infinite loop). It returns an error
// only if a setup step before the first vm86 enter fails.
func Boot(cfg Config) error {
	mem, err := linmem.Map(cfg.DevMemPath)
	if err != nil {
		return fmt.Errorf("map low memory: %w", err)
	}

	tty, err := term.Open(0)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	if err := tty.Raw(); err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}

	sig := sigio.Install()

	s := New(mem, tty, sig, cfg)
	s.Run()

	return nil
}
