package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/google/shlex"

	"github.com/GustavoHSCruz/gglang/corevm"
)

// session drives a corevm.VM from a stream of shell-like command lines:
// alloc, free, root, collect, limit, stats, dump. Each line is tokenized
// with google/shlex the same way a shell would split it, so quoted dump
// paths containing spaces work.
type session struct {
	vm       *corevm.VM
	out      io.Writer
	color    *colorSet
	dumpPath string

	// slots holds every value this session has allocated or rooted a
	// pointer to, indexed by the integer handle the REPL commands use to
	// refer to it ("alloc 64" prints "slot 0", "root add 0" roots it).
	slots []unsafe.Pointer
}

func newSession(vm *corevm.VM, out io.Writer, color *colorSet) *session {
	return &session{vm: vm, out: out, color: color}
}

// run reads lines from r until EOF, executing each as a command.
func (s *session) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.runLine(line); err != nil {
			fmt.Fprintln(s.out, s.color.errorf("error: %v", err))
		}
	}
	return scanner.Err()
}

func (s *session) runLine(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("tokenizing %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "alloc":
		return s.cmdAlloc(args[1:])
	case "free":
		return s.cmdFree(args[1:])
	case "root":
		return s.cmdRoot(args[1:])
	case "collect":
		s.vm.Collect()
		fmt.Fprintln(s.out, s.color.infof("collection cycle complete"))
		return nil
	case "limit":
		return s.cmdLimit(args[1:])
	case "stats":
		s.printStats()
		return nil
	case "dump":
		return s.cmdDump(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (s *session) cmdAlloc(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: alloc <bytes>")
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("alloc: %w", err)
	}
	p := s.vm.Alloc(uintptr(n))
	s.slots = append(s.slots, p)
	fmt.Fprintln(s.out, s.color.infof("slot %d allocated (%d bytes)", len(s.slots)-1, n))
	return nil
}

func (s *session) cmdFree(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: free <slot>")
	}
	i, err := s.slotIndex(args[0])
	if err != nil {
		return err
	}
	s.vm.Free(s.slots[i])
	s.slots[i] = nil
	fmt.Fprintln(s.out, s.color.infof("slot %d freed", i))
	return nil
}

func (s *session) cmdRoot(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: root <add|remove> <slot>")
	}
	i, err := s.slotIndex(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "add":
		s.vm.AddRoot(unsafe.Pointer(&s.slots[i]))
		fmt.Fprintln(s.out, s.color.infof("slot %d rooted", i))
	case "remove":
		if s.vm.RemoveRoot(unsafe.Pointer(&s.slots[i])) {
			fmt.Fprintln(s.out, s.color.infof("slot %d unrooted", i))
		} else {
			fmt.Fprintln(s.out, s.color.infof("slot %d was not rooted", i))
		}
	default:
		return fmt.Errorf("usage: root <add|remove> <slot>")
	}
	return nil
}

func (s *session) cmdLimit(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: limit <size|auto|0>")
	}
	n, err := resolveLimit(args[0])
	if err != nil {
		return err
	}
	s.vm.SetMemoryLimit(uintptr(n))
	fmt.Fprintln(s.out, s.color.infof("memory limit set to %d bytes", n))
	return nil
}

func (s *session) cmdDump(args []string) error {
	path := s.dumpPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("usage: dump <path> (or set -dump)")
	}
	if err := dumpHeapSnapshot(path, s.vm.Stats()); err != nil {
		return err
	}
	fmt.Fprintln(s.out, s.color.infof("heap snapshot appended to %s", path))
	return nil
}

func (s *session) slotIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(s.slots) {
		return 0, fmt.Errorf("no such slot %q", arg)
	}
	return i, nil
}

func (s *session) printStats() {
	st := s.vm.Stats()
	fmt.Fprintln(s.out, s.color.headerf("live=%d  collected=%d  cycles=%d  threshold=%d  roots=%d",
		st.LiveBytes, st.TotalCollected, st.Cycles, st.Threshold, st.RootCount))
}
