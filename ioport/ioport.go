// Package ioport provides the byte/word/dword primitives for direct host
// I/O port access (used once the supervisor has raised its own IOPL back
// to 3) plus the whitelist policy for which ports pass straight through
// to real hardware without a diagnostic log line.
package ioport

import "log"

// Range is a half-open port range [Lo, Hi).
type Range struct {
	Lo, Hi uint16
}

func (r Range) contains(port uint16) bool {
	return port >= r.Lo && port < r.Hi
}

// Whitelist is the static set of port ranges the supervisor passes
// through to real hardware silently. Every other port access still
// passes through, but gets a diagnostic log line — invaluable for
// discovering hardware DOS touches that the whitelist doesn't yet cover.
var Whitelist = []Range{
	{0x1F0, 0x1F8}, // primary ATA
	{0x170, 0x178}, // secondary ATA
	{0x3B0, 0x3E0}, // VGA
	{0x3F0, 0x3F8}, // floppy
	{0x608, 0x609}, // single port
}

func isWhitelisted(port uint16) bool {
	for _, r := range Whitelist {
		if r.contains(port) {
			return true
		}
	}

	return false
}

// LogIfUnlisted writes a diagnostic line for any port access outside the
// whitelist, with direction, port, value, and the guest CS:IP the access
// came from.
func LogIfUnlisted(dir string, port uint16, value uint32, cs, ip uint16) {
	if isWhitelisted(port) {
		return
	}

	log.Printf("port %s %#04x value=%#x at %04x:%04x (not whitelisted)", dir, port, value, cs, ip)
}

