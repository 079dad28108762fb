package flag

import (
	"net/http"

	"github.com/alecthomas/kong"
	"github.com/felixge/fgprof"
	"github.com/pkg/profile"

	"github.com/dosvm86/supervisor/probe"
	"github.com/dosvm86/supervisor/supervisor"
)

func Parse() error {
	c := CLI{}

	programName := "dosvm86"
	programDesc := "dosvm86 runs a DOS guest in Linux's vm86(2) mode"

	ctx := kong.Parse(&c,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	err := ctx.Run()

	return err
}

func (d *ProbeCMD) Run() error {
	if err := probe.Capabilities(); err != nil {
		return err
	}

	return nil
}

func (s *BootCMD) Run() error {
	traceEvery, err := ParseSize(s.Trace, "")
	if err != nil {
		return err
	}

	if s.Profile {
		defer profile.Start(profile.CPUProfile).Stop()

		go http.ListenAndServe("localhost:6060", fgprof.Handler()) // nolint:errcheck
	}

	cfg := supervisor.Config{
		DevMemPath: s.Dev,
		ShellPath:  s.Shell,
		TraceEvery: traceEvery,
	}

	return supervisor.Boot(cfg)
}
