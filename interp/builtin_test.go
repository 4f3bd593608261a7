package interp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"tinysh/env"
	"tinysh/history"
)

func runBuiltin(t *testing.T, rt *Runtime, name string, args []string, en *env.Environment) (ExecOutcome, string, string) {
	t.Helper()
	b, ok := rt.Builtins[name]
	if !ok {
		t.Fatalf("no such builtin %q", name)
	}
	var out, errBuf bytes.Buffer
	outcome, err := b(context.Background(), args, en, StdIO{Stdout: &out, Stderr: &errBuf})
	if err != nil {
		t.Fatalf("builtin %s: %v", name, err)
	}
	return outcome, out.String(), errBuf.String()
}

func TestBuiltinCdNoArgUsesHome(t *testing.T) {
	startWd, _ := os.Getwd()
	defer os.Chdir(startWd)
	tmp := t.TempDir()

	en := env.New()
	en.Export("HOME", strPtrB(tmp))
	rt := newTestRuntime()
	outcome, _, _ := runBuiltin(t, rt, "cd", nil, en)
	if outcome.Code != 0 {
		t.Fatalf("Code = %d, want 0", outcome.Code)
	}
	wd, _ := os.Getwd()
	resolvedTmp, _ := filepath.EvalSymlinks(tmp)
	resolvedWd, _ := filepath.EvalSymlinks(wd)
	if resolvedWd != resolvedTmp {
		t.Errorf("cwd = %q, want %q", resolvedWd, resolvedTmp)
	}
}

func TestBuiltinCdFailureReportsError(t *testing.T) {
	en := env.New()
	rt := newTestRuntime()
	outcome, _, errOut := runBuiltin(t, rt, "cd", []string{"/no/such/dir/at/all"}, en)
	if outcome.Code != 1 {
		t.Errorf("Code = %d, want 1", outcome.Code)
	}
	if errOut == "" {
		t.Errorf("expected an error message on stderr")
	}
}

func TestBuiltinExit(t *testing.T) {
	en := env.New()
	rt := newTestRuntime()

	outcome, _, _ := runBuiltin(t, rt, "exit", nil, en)
	if !outcome.IsExit || outcome.ExitCode != 0 {
		t.Errorf("exit with no arg: got %+v, want Exit(0)", outcome)
	}

	outcome, _, _ = runBuiltin(t, rt, "exit", []string{"42"}, en)
	if !outcome.IsExit || outcome.ExitCode != 42 {
		t.Errorf("exit 42: got %+v, want Exit(42)", outcome)
	}

	outcome, _, errOut := runBuiltin(t, rt, "exit", []string{"nope"}, en)
	if outcome.IsExit || outcome.Code != 1 {
		t.Errorf("exit nope: got %+v, want Code(1)", outcome)
	}
	if errOut == "" {
		t.Error("expected numeric-argument error on stderr")
	}
}

func TestBuiltinExportSetsValueAndFlag(t *testing.T) {
	en := env.New()
	rt := newTestRuntime()
	outcome, _, _ := runBuiltin(t, rt, "export", []string{"FOO=bar"}, en)
	if outcome.Code != 0 {
		t.Fatalf("Code = %d, want 0", outcome.Code)
	}
	v, ok := en.Get("FOO")
	if !ok || v != "bar" {
		t.Fatalf("Get(FOO) = %q, %v, want bar, true", v, ok)
	}
	pairs := en.ExportedPairs()
	found := false
	for _, p := range pairs {
		if p == "FOO=bar" {
			found = true
		}
	}
	if !found {
		t.Errorf("FOO=bar not present in ExportedPairs: %v", pairs)
	}
}

func TestBuiltinExportNoValuePreservesExisting(t *testing.T) {
	en := env.New()
	en.Set("FOO", "existing")
	rt := newTestRuntime()
	runBuiltin(t, rt, "export", []string{"FOO"}, en)
	v, _ := en.Get("FOO")
	if v != "existing" {
		t.Errorf("Get(FOO) = %q, want existing (value untouched)", v)
	}
}

func TestBuiltinHelpListsRegisteredNames(t *testing.T) {
	en := env.New()
	rt := newTestRuntime()
	_, out, _ := runBuiltin(t, rt, "help", nil, en)
	for _, name := range []string{"cd", "exit", "export", "help", "history"} {
		if !bytes.Contains([]byte(out), []byte(name)) {
			t.Errorf("help output missing %q:\n%s", name, out)
		}
	}
}

func TestBuiltinHistoryListsNumberedEntries(t *testing.T) {
	h := history.New("", 500)
	h.Add("echo one")
	h.Add("echo two")
	rt := NewRuntime(h, nil)
	en := env.New()
	_, out, _ := runBuiltin(t, rt, "history", nil, en)
	want := "    1  echo one\n    2  echo two\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBuiltinHistoryClear(t *testing.T) {
	h := history.New("", 500)
	h.Add("echo one")
	rt := NewRuntime(h, nil)
	en := env.New()
	outcome, out, _ := runBuiltin(t, rt, "history", []string{"-c"}, en)
	if outcome.Code != 0 {
		t.Errorf("Code = %d, want 0", outcome.Code)
	}
	if out != "cleared 1 entries\n" {
		t.Errorf("got %q", out)
	}
	if h.Len() != 0 {
		t.Errorf("history not cleared: Len() = %d", h.Len())
	}
}

func strPtrB(s string) *string { return &s }
