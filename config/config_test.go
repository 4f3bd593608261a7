package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRC(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".tinyshrc")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Prompt != def.Prompt || cfg.HistoryMax != def.HistoryMax || cfg.ExecutorType != def.ExecutorType {
		t.Fatalf("got %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadOverridesRecognizedKeys(t *testing.T) {
	path := writeRC(t, "# a comment\n\nprompt=> \nhistory_max=10\nexecutor_type=recursive\nalias.ll=ls -l\nenv.FOO=bar\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "> " {
		t.Errorf("Prompt = %q, want %q", cfg.Prompt, "> ")
	}
	if cfg.HistoryMax != 10 {
		t.Errorf("HistoryMax = %d, want 10", cfg.HistoryMax)
	}
	if cfg.ExecutorType != "recursive" {
		t.Errorf("ExecutorType = %q, want recursive", cfg.ExecutorType)
	}
	if cfg.Aliases["ll"] != "ls -l" {
		t.Errorf("Aliases[ll] = %q, want %q", cfg.Aliases["ll"], "ls -l")
	}
	if cfg.EnvOverrides["FOO"] != "bar" {
		t.Errorf("EnvOverrides[FOO] = %q, want bar", cfg.EnvOverrides["FOO"])
	}
}

func TestLoadValueNotTrimmed(t *testing.T) {
	path := writeRC(t, "prompt=  $ \n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "  $ " {
		t.Errorf("Prompt = %q, want %q (verbatim, no trimming)", cfg.Prompt, "  $ ")
	}
}

func TestLoadUnknownKeyFails(t *testing.T) {
	path := writeRC(t, "bogus=1\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if perr.Line != 1 {
		t.Errorf("Line = %d, want 1", perr.Line)
	}
}

func TestLoadInvalidHistoryMaxFails(t *testing.T) {
	path := writeRC(t, "history_max=not-a-number\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid history_max")
	}
}

func TestLoadInvalidExecutorTypeFails(t *testing.T) {
	path := writeRC(t, "executor_type=parallel\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid executor_type")
	}
}

func TestExpandHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.HistoryFile = "~/.tiny_shell_history"
	if got, want := cfg.ExpandHistoryPath("/home/u"), "/home/u/.tiny_shell_history"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	cfg.HistoryFile = "/abs/path"
	if got := cfg.ExpandHistoryPath("/home/u"); got != "/abs/path" {
		t.Errorf("got %q, want unchanged absolute path", got)
	}
}
