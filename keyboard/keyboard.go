// Package keyboard implements the BIOS-compatible keyboard front end: a
// PS/2-scancode producer (scancode.go) feeding a bounded keycode queue,
// INT 16h consumer service routines (int16h.go), and the legacy
// port 0x60/0x64 status-byte path (controller.go) for code that polls
// the keyboard controller directly instead of calling INT 16h.
//
// Grounded on the data model's Keyboard type: scancode_stream (transient,
// not buffered across Feed calls), keycode_queue (bounded ring, ≤16),
// flags0/flags1 (BDA kbd_flag0/kbd_flag1 mirrors), soft_reset_flag.
package keyboard

// QueueCap is the maximum number of queued keycodes. Invariant:
// 0 <= len(queue) <= QueueCap at all times.
const QueueCap = 16

// Flags0 bits (BDA kbd_flag0 at 0x417): shift/ctrl/alt "active" state and
// the lock-key toggle state. A key is "active" while physically held
// (shift, ctrl, alt) or while its lock is latched on (caps/num/scroll).
const (
	Flags0RShift       uint8 = 1 << 0
	Flags0LShift       uint8 = 1 << 1
	Flags0CtrlActive   uint8 = 1 << 2
	Flags0AltActive    uint8 = 1 << 3
	Flags0ScrollActive uint8 = 1 << 4
	Flags0NumActive    uint8 = 1 << 5
	Flags0CapsActive   uint8 = 1 << 6
)

// Flags1 bits (BDA kbd_flag1 at 0x418): left/right modifier distinction,
// the E0/E1 prefix latch, and SysReq. RCtrl/RAlt double as the bits
// INT 16h/0x12's extended-status formula reads out of flags1.
const (
	Flags1LCtrl  uint8 = 1 << 0
	Flags1LAlt   uint8 = 1 << 1
	Flags1RCtrl  uint8 = 1 << 2
	Flags1RAlt   uint8 = 1 << 3
	Flags1LastE0 uint8 = 1 << 4
	Flags1LastE1 uint8 = 1 << 5
	Flags1SysReq uint8 = 1 << 6
)

// SoftResetRequested is the value written to SoftResetFlag by a
// Ctrl+Alt+Del chord (scancode 0x53 with both modifiers active).
const SoftResetRequested uint16 = 0x1234

// Keyboard is the guest's keyboard state: the bounded keycode queue BIOS
// calls drain, the flag bytes the scancode translator maintains, and the
// soft-reset latch.
type Keyboard struct {
	queue      [QueueCap]uint16
	head, size int

	Flags0 uint8
	Flags1 uint8

	// SoftResetFlag is implementation-defined per §9: this port treats a
	// non-zero value as a request to halt rather than reboot (see
	// supervisor.haltForever).
	SoftResetFlag uint16
}

// New returns an empty keyboard with no modifiers active.
func New() *Keyboard {
	return &Keyboard{}
}

// Len reports the number of queued keycodes.
func (k *Keyboard) Len() int { return k.size }

// Empty reports whether the queue has no keycodes to read.
func (k *Keyboard) Empty() bool { return k.size == 0 }

// Full reports whether the queue cannot accept another keycode.
func (k *Keyboard) Full() bool { return k.size == QueueCap }

// enqueue appends a keycode to the tail of the ring. A zero keycode
// (produced by keys the translator deliberately swallows) is dropped
// silently; a full queue drops the keycode and reports false so INT
// 16h/0x05 can surface AL=1 to the guest.
func (k *Keyboard) enqueue(code uint16) bool {
	if code == 0 {
		return true
	}

	if k.Full() {
		return false
	}

	k.queue[(k.head+k.size)%QueueCap] = code
	k.size++

	return true
}

// Dequeue removes and returns the head keycode.
func (k *Keyboard) Dequeue() (uint16, bool) {
	if k.Empty() {
		return 0, false
	}

	v := k.queue[k.head]
	k.head = (k.head + 1) % QueueCap
	k.size--

	return v, true
}

// Peek returns the head keycode without consuming it. Per §9's open
// question, this does not attempt to collapse or re-translate a
// multi-byte extended sequence sitting at the head: it returns exactly
// what Dequeue would return.
func (k *Keyboard) Peek() (uint16, bool) {
	if k.Empty() {
		return 0, false
	}

	return k.queue[k.head], true
}

// Enqueue is INT 16h/0x05's software-injection path: the guest supplies
// a keycode directly (CX) to push onto the queue as if it had been
// typed. Returns false if the queue was full.
func (k *Keyboard) Enqueue(code uint16) bool {
	return k.enqueue(code)
}
