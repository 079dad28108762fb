// Package linmem provides the linear-addressing view over the shared
// low-memory mapping (the first ~1.1 MiB, guest physical == host virtual,
// mapped from /dev/mem) that both the Linux host and the VM8086 guest
// address directly. Ownership is the host kernel's; access is shared and
// unlocked, because the guest is always suspended whenever the supervisor
// runs (see the concurrency section of the spec this repo implements).
package linmem

import (
	"fmt"
	"os"
	"syscall"
)

// Size is the extent of the shared mapping: the first MiB plus the HMA.
const Size = 0x110000

// InitRecordAddr is the fixed guest linear address of the vm86_init
// record a caller lays down before invoking the supervisor.
const InitRecordAddr = 0x100000

// Memory is the shared low-memory mapping.
type Memory struct {
	buf []byte
}

// Map mmaps the first Size bytes of /dev/mem at a fixed address, shared
// with the guest and the rest of the host.
func Map(devMemPath string) (*Memory, error) {
	f, err := os.OpenFile(devMemPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devMemPath, err)
	}
	defer f.Close()

	buf, err := syscall.Mmap(int(f.Fd()), 0, Size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", devMemPath, err)
	}

	return &Memory{buf: buf}, nil
}

// MapAnonymous backs the low-memory view with an anonymous mapping
// instead of /dev/mem. Used by tests and by any host that wants to run
// the supervisor against a synthetic DOS image without real low memory.
func MapAnonymous() (*Memory, error) {
	buf, err := syscall.Mmap(-1, 0, Size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED|syscall.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap anonymous: %w", err)
	}

	return &Memory{buf: buf}, nil
}

// Lin computes the 20-bit real-mode linear address of segment:offset,
// exactly as the 8086 address-generation unit does: (seg<<4)+off.
func Lin(seg, off uint16) uint32 {
	return (uint32(seg) << 4) + uint32(off)
}

func (m *Memory) Bytes() []byte { return m.buf }

func (m *Memory) Peek8(seg, off uint16) uint8 {
	return m.buf[Lin(seg, off)]
}

func (m *Memory) Poke8(seg, off uint16, v uint8) {
	m.buf[Lin(seg, off)] = v
}

func (m *Memory) Peek16(seg, off uint16) uint16 {
	a := Lin(seg, off)

	return uint16(m.buf[a]) | uint16(m.buf[a+1])<<8
}

func (m *Memory) Poke16(seg, off uint16, v uint16) {
	a := Lin(seg, off)
	m.buf[a] = byte(v)
	m.buf[a+1] = byte(v >> 8)
}

func (m *Memory) Poke32(seg, off uint16, v uint32) {
	a := Lin(seg, off)
	m.buf[a] = byte(v)
	m.buf[a+1] = byte(v >> 8)
	m.buf[a+2] = byte(v >> 16)
	m.buf[a+3] = byte(v >> 24)
}

func (m *Memory) Peek32(seg, off uint16) uint32 {
	a := Lin(seg, off)

	return uint32(m.buf[a]) | uint32(m.buf[a+1])<<8 |
		uint32(m.buf[a+2])<<16 | uint32(m.buf[a+3])<<24
}

// Window returns up to n bytes starting at seg:off, clamped to the end of
// the mapping. Used by the instruction emulator to hand x86asm.Decode a
// byte slice to decode the GPF'd instruction from, without copying.
func (m *Memory) Window(seg, off uint16, n int) []byte {
	start := Lin(seg, off)
	end := start + uint32(n)

	if end > uint32(len(m.buf)) {
		end = uint32(len(m.buf))
	}

	if start >= end {
		return nil
	}

	return m.buf[start:end]
}

// PeekAtByte/PeekAt16 take a raw linear address rather than segment:offset, for
// callers (like the IVT reader) that already have one.
func (m *Memory) PeekAtByte(lin uint32) uint8 { return m.buf[lin] }

func (m *Memory) PeekAt16(lin uint32) uint16 {
	return uint16(m.buf[lin]) | uint16(m.buf[lin+1])<<8
}

// InitRecord is the caller-supplied seed for the guest's initial register
// state, packed little-endian at InitRecordAddr (5 x uint16).
type InitRecord struct {
	IP     uint16
	CS     uint16
	Flags  uint16
	SP     uint16
	SS     uint16
}

// ReadInitRecord decodes the vm86_init record at the fixed guest address.
func (m *Memory) ReadInitRecord() InitRecord {
	return InitRecord{
		IP:    m.PeekAt16(InitRecordAddr + 0),
		CS:    m.PeekAt16(InitRecordAddr + 2),
		Flags: m.PeekAt16(InitRecordAddr + 4),
		SP:    m.PeekAt16(InitRecordAddr + 6),
		SS:    m.PeekAt16(InitRecordAddr + 8),
	}
}
