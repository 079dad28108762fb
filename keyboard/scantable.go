package keyboard

// column selects which modifier-state column of the scan table to read.
type column int

const (
	colNormal column = iota
	colShift
	colCtrl
	colAlt
)

// asciiRow is one make-code row of the Set-1 XT scan table: AH is always
// the scan code itself, AL varies by column. A zero AL marks a
// non-printable key (function keys, arrows handled elsewhere, etc.);
// AL=0 with the scan code in AH is exactly what real BIOS int16h returns
// for those keys.
type asciiRow struct {
	normal, shift, ctrl, alt byte
}

// scanTable covers Esc and the alphanumeric block, scan codes 0x01-0x39.
// Index 0 is unused (scan codes start at 1); index i holds the row for
// scan code i. Letters' ctrl column follows the usual ctrl-letter =
// letter&0x1F convention; alt column is 0 for every key except space
// (alt+key keycodes carry no ASCII, only AH=scan; lookup reads the alt
// field like any other column, so a 0 there yields exactly that).
var scanTable = [0x3A]asciiRow{
	0x01: {0x1B, 0x1B, 0x1B, 0}, // Esc
	0x02: {'1', '!', 0, 0},
	0x03: {'2', '@', 0, 0},
	0x04: {'3', '#', 0, 0},
	0x05: {'4', '$', 0, 0},
	0x06: {'5', '%', 0, 0},
	0x07: {'6', '^', 0x1E, 0},
	0x08: {'7', '&', 0, 0},
	0x09: {'8', '*', 0, 0},
	0x0A: {'9', '(', 0, 0},
	0x0B: {'0', ')', 0, 0},
	0x0C: {'-', '_', 0x1F, 0},
	0x0D: {'=', '+', 0, 0},
	0x0E: {0x08, 0x08, 0x7F, 0}, // Backspace
	0x0F: {0x09, 0x00, 0, 0},    // Tab (shift-tab has no ASCII here)
	0x10: {'q', 'Q', 0x11, 0},
	0x11: {'w', 'W', 0x17, 0},
	0x12: {'e', 'E', 0x05, 0},
	0x13: {'r', 'R', 0x12, 0},
	0x14: {'t', 'T', 0x14, 0},
	0x15: {'y', 'Y', 0x19, 0},
	0x16: {'u', 'U', 0x15, 0},
	0x17: {'i', 'I', 0x09, 0},
	0x18: {'o', 'O', 0x0F, 0},
	0x19: {'p', 'P', 0x10, 0},
	0x1A: {'[', '{', 0x1B, 0},
	0x1B: {']', '}', 0x1D, 0},
	0x1C: {0x0D, 0x0D, 0x0A, 0}, // Enter
	0x1E: {'a', 'A', 0x01, 0},
	0x1F: {'s', 'S', 0x13, 0},
	0x20: {'d', 'D', 0x04, 0},
	0x21: {'f', 'F', 0x06, 0},
	0x22: {'g', 'G', 0x07, 0},
	0x23: {'h', 'H', 0x08, 0},
	0x24: {'j', 'J', 0x0A, 0},
	0x25: {'k', 'K', 0x0B, 0},
	0x26: {'l', 'L', 0x0C, 0},
	0x27: {';', ':', 0, 0},
	0x28: {'\'', '"', 0, 0},
	0x29: {'`', '~', 0, 0},
	0x2B: {'\\', '|', 0x1C, 0},
	0x2C: {'z', 'Z', 0x1A, 0},
	0x2D: {'x', 'X', 0x18, 0},
	0x2E: {'c', 'C', 0x03, 0},
	0x2F: {'v', 'V', 0x16, 0},
	0x30: {'b', 'B', 0x02, 0},
	0x31: {'n', 'N', 0x0E, 0},
	0x32: {'m', 'M', 0x0D, 0},
	0x33: {',', '<', 0, 0},
	0x34: {'.', '>', 0, 0},
	0x35: {'/', '?', 0, 0},
	0x37: {'*', '*', 0, 0}, // keypad '*'
	0x39: {' ', ' ', ' ', ' '},
}

// isLetterScan reports whether scan is in one of the three QWERTY letter
// rows, the range CapsLock re-inverts shift for.
func isLetterScan(scan byte) bool {
	switch {
	case scan >= 0x10 && scan <= 0x19:
		return true
	case scan >= 0x1E && scan <= 0x26:
		return true
	case scan >= 0x2C && scan <= 0x32:
		return true
	default:
		return false
	}
}

// isKeypadScan reports whether scan is one of the dual-purpose numeric
// keypad keys, the range NumLock re-inverts shift for.
func isKeypadScan(scan byte) bool {
	return scan >= 0x47 && scan <= 0x53
}

// lookup resolves scan+col to a full AH:AL keycode using scanTable. AH is
// always the scan code; AL comes from the selected column (0 for scan
// codes outside the table, e.g. function keys, which thus come back as
// AH=scan, AL=0).
func lookup(scan byte, col column) uint16 {
	if int(scan) >= len(scanTable) {
		return uint16(scan) << 8
	}

	row := scanTable[scan]

	var al byte

	switch col {
	case colShift:
		al = row.shift
	case colCtrl:
		al = row.ctrl
	case colAlt:
		al = row.alt
	default:
		al = row.normal
	}

	return uint16(scan)<<8 | uint16(al)
}

// keypadTable maps a keypad scan code to its NumLock-off (navigation)
// keycode, non-extended form (no E0 prefix precedes these from the
// primary keypad cluster).
var keypadTable = map[byte]uint16{
	0x47: 0x4700, // Home
	0x48: 0x4800, // Up
	0x49: 0x4900, // PgUp
	0x4A: uint16('-')<<0 | 0x4A<<8,
	0x4B: 0x4B00, // Left
	0x4C: 0x4C00, // Center (5)
	0x4D: 0x4D00, // Right
	0x4E: uint16('+')<<0 | 0x4E<<8,
	0x4F: 0x4F00, // End
	0x50: 0x5000, // Down
	0x51: 0x5100, // PgDn
	0x52: 0x5200, // Ins
	0x53: 0x5300, // Del
}

// keypadDigit maps a keypad scan code to the ASCII digit BIOS reports
// when NumLock is active (on) and no other modifier overrides it.
var keypadDigit = map[byte]byte{
	0x47: '7', 0x48: '8', 0x49: '9',
	0x4B: '4', 0x4C: '5', 0x4D: '6',
	0x4F: '1', 0x50: '2', 0x51: '3',
	0x52: '0', 0x53: '.',
}
