package flag

import (
	"fmt"
	"strconv"
	"strings"
)

// CLI is the kong command tree: one subcommand per thing this binary can
// do, mirroring the teacher's boot/probe split.
type CLI struct {
	Boot  BootCMD  `cmd:"" help:"Boot the DOS supervisor over an already-prepared low-memory image."`
	Probe ProbeCMD `cmd:"" help:"Check that IOPL privileges are usable and whether stdin is a terminal (vm86(2) itself is not called)."`
}

// BootCMD is the boot subcommand's flags.
type BootCMD struct {
	Dev   string `short:"D" default:"/dev/mem" help:"low-memory device to map"`
	Shell string `short:"s" default:"/bin/sh" help:"host shell DOSLINUX run-command execs"`

	Trace string `short:"T" default:"0" help:"log every Nth emulated GPF instruction; 0 disables tracing"`

	Profile bool `help:"wrap the run in a pkg/profile CPU profile plus an fgprof wall-clock profile"`
}

// ProbeCMD takes no flags: it just runs the capability checks.
type ProbeCMD struct{}

// ParseSize parses a size string as number[gGmMkK]. The multiplier is optional,
// and if not set, the unit passed in is used. The number can be any base and
// size.
func ParseSize(s, unit string) (int, error) {
	sz := strings.TrimRight(s, "gGmMkK")
	if len(sz) == 0 {
		return -1, fmt.Errorf("%q:can't parse as num[gGmMkK]:%w", s, strconv.ErrSyntax)
	}

	amt, err := strconv.ParseUint(sz, 0, 0)
	if err != nil {
		return -1, err
	}

	if len(s) > len(sz) {
		unit = s[len(sz):]
	}

	switch unit {
	case "G", "g":
		return int(amt) << 30, nil
	case "M", "m":
		return int(amt) << 20, nil
	case "K", "k":
		return int(amt) << 10, nil
	case "":
		return int(amt), nil
	}

	return -1, fmt.Errorf("can not parse %q as num[gGmMkK]:%w", s, strconv.ErrSyntax)
}
