package term_test

import (
	"errors"
	"testing"

	"github.com/dosvm86/supervisor/term"
	"golang.org/x/sys/unix"
)

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if term.IsTerminal() {
		t.Fatalf("stdin should not be a terminal under go test")
	}
}

func TestOpenNonTerminal(t *testing.T) {
	t.Parallel()

	if _, err := term.Open(0); err != nil && !errors.Is(err, unix.ENOTTY) {
		t.Fatalf("error Open: %v", err)
	}
}

func TestFixCursor(t *testing.T) {
	t.Parallel()

	// FixCursor only writes an ANSI escape to stdout; it has no failure
	// mode to assert on beyond "does not panic" for any byte pair.
	term.FixCursor(0x00, 0x00)
	term.FixCursor(0xFF, 0xFF)
}
