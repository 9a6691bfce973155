// Command corevm-debug drives a corevm.VM from a scripted or interactive
// session of alloc/free/root/collect/stats/dump commands. It is host
// tooling built on top of the core's public API (package corevm); it
// implements no collector semantics of its own.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/GustavoHSCruz/gglang/corevm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin *os.File, stdout *os.File) int {
	flags, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 2
	}

	cfg, err := loadSessionConfig(flags.configPath)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 2
	}

	limitRaw := flags.limit
	if limitRaw == "" {
		limitRaw = cfg.Limit
	}
	limit, err := resolveLimit(limitRaw)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 2
	}

	vm := corevm.NewVM()
	if limit > 0 {
		vm.SetMemoryLimit(uintptr(limit))
	}

	out := colorableWriter(stdout)
	sess := newSession(vm, out, newColorSet(stdout))
	sess.dumpPath = flags.dumpPath

	if len(cfg.Script) > 0 {
		if err := sess.run(strings.NewReader(strings.Join(cfg.Script, "\n"))); err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
	}

	if flags.scriptPath != "" {
		f, err := os.Open(flags.scriptPath)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		defer f.Close()
		if err := sess.run(f); err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		return 0
	}

	if !flags.interactive {
		return 0
	}
	if err := sess.run(stdin); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	return 0
}

type cliFlags struct {
	configPath  string
	limit       string
	scriptPath  string
	dumpPath    string
	interactive bool
}

// parseFlags is a thin, dependency-free wrapper around the standard flag
// package (kept in its own function so tests can drive it without
// depending on package-level flag.CommandLine state).
func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("corevm-debug", flag.ContinueOnError)
	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to a YAML session config")
	fs.StringVar(&f.limit, "limit", "", `memory ceiling ("64MB", "auto", or "" for none)`)
	fs.StringVar(&f.scriptPath, "script", "", "path to a command script to run non-interactively")
	fs.StringVar(&f.dumpPath, "dump", "", "default path for the dump command")
	fs.BoolVar(&f.interactive, "i", true, "read commands from stdin after any config script runs (stdin is not read when -script is given)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
