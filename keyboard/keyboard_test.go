package keyboard_test

import (
	"testing"

	"github.com/dosvm86/supervisor/keyboard"
)

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	k := keyboard.New()

	if !k.Empty() {
		t.Fatalf("new keyboard should be empty")
	}

	if !k.Enqueue(0x1E61) || !k.Enqueue(0x1F73) {
		t.Fatalf("enqueue on empty queue should succeed")
	}

	v, ok := k.Dequeue()
	if !ok || v != 0x1E61 {
		t.Fatalf("got %#x, %v; want 0x1e61, true", v, ok)
	}

	v, ok = k.Dequeue()
	if !ok || v != 0x1F73 {
		t.Fatalf("got %#x, %v; want 0x1f73, true", v, ok)
	}

	if !k.Empty() {
		t.Fatalf("queue should be drained")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	k := keyboard.New()

	for i := 0; i < keyboard.QueueCap; i++ {
		if !k.Enqueue(uint16(0x1000 + i)) {
			t.Fatalf("enqueue %d should succeed before the queue is full", i)
		}
	}

	if !k.Full() {
		t.Fatalf("queue should report full at capacity %d", keyboard.QueueCap)
	}

	if k.Enqueue(0x9999) {
		t.Fatalf("enqueue into a full queue should report false")
	}

	v, ok := k.Dequeue()
	if !ok || v != 0x1000 {
		t.Fatalf("got %#x, %v; want 0x1000, true (FIFO order preserved)", v, ok)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Enqueue(0xE00D)

	v1, ok1 := k.Peek()
	v2, ok2 := k.Peek()

	if !ok1 || !ok2 || v1 != v2 || v1 != 0xE00D {
		t.Fatalf("repeated Peek should be idempotent, got %#x,%v %#x,%v", v1, ok1, v2, ok2)
	}

	if k.Len() != 1 {
		t.Fatalf("Peek must not consume: len=%d, want 1", k.Len())
	}
}

func TestPlainLetterKeypress(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0x1E) // 'a' make code

	v, ok := k.Dequeue()
	if !ok {
		t.Fatalf("plain letter press should enqueue a keycode")
	}

	if byte(v) != 'a' || byte(v>>8) != 0x1E {
		t.Fatalf("got AX=%#04x, want AH=0x1e AL='a'", v)
	}
}

func TestShiftedLetterKeypress(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0x2A) // LShift make
	k.Feed(0x1E) // 'a' make, shifted

	v, ok := k.Dequeue()
	if !ok || byte(v) != 'A' {
		t.Fatalf("got %#04x, ok=%v; want AL='A'", v, ok)
	}

	k.Feed(0xAA) // LShift break

	k.Feed(0x1E)

	v, ok = k.Dequeue()
	if !ok || byte(v) != 'a' {
		t.Fatalf("after shift release, got %#04x; want AL='a'", v)
	}
}

func TestKeyReleaseDoesNotEnqueue(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0x1E) // make
	k.Dequeue()
	k.Feed(0x9E) // break (0x1E | 0x80)

	if !k.Empty() {
		t.Fatalf("a key release must not enqueue a keycode")
	}
}

func TestExtendedEnter(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0xE0)
	k.Feed(0x1C)

	v, ok := k.Dequeue()
	if !ok || v != 0xE00D {
		t.Fatalf("got %#04x; want extended enter 0xe00d", v)
	}
}

func TestE0E1LatchClearsAfterOneByte(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0xE0)
	k.Feed(0x1C) // consumes the E0 latch
	k.Dequeue()

	k.Feed(0x1E) // should now be interpreted as a plain, non-extended 'a'

	v, ok := k.Dequeue()
	if !ok || v != (uint16(0x1E)<<8|'a') {
		t.Fatalf("E0 latch leaked into next scancode: got %#04x", v)
	}
}

func TestCtrlAltDelSoftReset(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0x1D) // Ctrl make
	k.Feed(0x38) // Alt make
	k.Feed(0x53) // Del make

	if k.SoftResetFlag != keyboard.SoftResetRequested {
		t.Fatalf("got SoftResetFlag=%#x, want %#x", k.SoftResetFlag, keyboard.SoftResetRequested)
	}
}

func TestCapsLockTogglesWithoutShift(t *testing.T) {
	t.Parallel()

	k := keyboard.New()
	k.Feed(0x3A) // CapsLock make
	k.Feed(0x3A | 0x80)

	if k.Flags0&keyboard.Flags0CapsActive == 0 {
		t.Fatalf("CapsLock press should toggle Flags0CapsActive on")
	}

	k.Feed(0x1E) // 'a' with caps active, no shift

	v, _ := k.Dequeue()
	if byte(v) != 'A' {
		t.Fatalf("got AL=%q, want 'A' (caps re-inverts shift for letters)", byte(v))
	}
}
