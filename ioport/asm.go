package ioport

// Inb/Outb/Inw/Outw/Inl/Outl are real x86 IN/OUT instructions, implemented
// in asm_amd64.s since Go has no port-I/O intrinsic. The calling thread
// must already hold IOPL 3 (vm86.RaiseIOPL) or these will fault with
// SIGSEGV.
func Inb(port uint16) uint8

func Outb(port uint16, value uint8)

func Inw(port uint16) uint16

func Outw(port uint16, value uint16)

func Inl(port uint16) uint32

func Outl(port uint16, value uint32)
