package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GustavoHSCruz/gglang/corevm"
)

func newTestSession() (*session, *bytes.Buffer) {
	var buf bytes.Buffer
	vm := corevm.NewVM()
	s := newSession(vm, &buf, newColorSet(&buf))
	return s, &buf
}

func TestAllocRootCollectStatsScript(t *testing.T) {
	s, buf := newTestSession()
	script := strings.Join([]string{
		"alloc 64",
		"root add 0",
		"collect",
		"stats",
	}, "\n")

	if err := s.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "live=64") {
		t.Fatalf("expected live=64 in stats output, got %q", buf.String())
	}
}

func TestUnrootedAllocIsFreedOnCollect(t *testing.T) {
	s, buf := newTestSession()
	script := strings.Join([]string{
		"alloc 64",
		"collect",
		"stats",
	}, "\n")

	if err := s.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "live=0") {
		t.Fatalf("expected live=0 in stats output, got %q", buf.String())
	}
}

func TestUnknownCommandReportsError(t *testing.T) {
	s, buf := newTestSession()
	if err := s.run(strings.NewReader("bogus")); err != nil {
		t.Fatalf("run itself should not fail on a bad command: %v", err)
	}
	if !strings.Contains(buf.String(), "unknown command") {
		t.Fatalf("expected an unknown-command error, got %q", buf.String())
	}
}

func TestFreeThenRootIsHarmless(t *testing.T) {
	s, _ := newTestSession()
	script := strings.Join([]string{
		"alloc 8",
		"free 0",
		"root add 0",
		"collect",
	}, "\n")
	if err := s.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestLimitParsesHumanSize(t *testing.T) {
	s, buf := newTestSession()
	if err := s.run(strings.NewReader("limit 1KB")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "memory limit set to 1024 bytes") {
		t.Fatalf("unexpected limit output: %q", buf.String())
	}
}
