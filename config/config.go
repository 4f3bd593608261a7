// Package config loads tinyshrc, the shell's line-oriented startup file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseError reports the 1-based line number and message of a malformed
// tinyshrc line, per spec.md §6: unknown keys or invalid integers fail
// the whole file load.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: line %d: %s", e.Line, e.Message)
}

// Config holds the recognized tinyshrc keys plus the alias.* and env.*
// override tables.
type Config struct {
	Prompt       string
	HistoryFile  string
	HistoryMax   int
	ExecutorType string
	Aliases      map[string]string
	EnvOverrides map[string]string
}

// Default returns the spec-mandated defaults (spec.md §6 table), used
// both as the starting point for Load and when no rc file exists.
func Default() *Config {
	return &Config{
		Prompt:       "$ ",
		HistoryFile:  "~/.tiny_shell_history",
		HistoryMax:   500,
		ExecutorType: "flatten",
		Aliases:      map[string]string{},
		EnvOverrides: map[string]string{},
	}
}

// Load reads path line by line, applying overrides onto Default(). A
// missing file is not an error: the caller gets the defaults. `#`
// comments and blank lines are skipped; every other line must be
// `key=value`, split on the first `=`, with the value kept verbatim
// (no trimming) since the format has no quoting.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			return nil, &ParseError{Line: lineNo, Message: "expected key=value"}
		}
		key, value := line[:i], line[i+1:]
		if err := cfg.apply(key, value); err != nil {
			return nil, &ParseError{Line: lineNo, Message: err.Error()}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) apply(key, value string) error {
	switch {
	case key == "prompt":
		cfg.Prompt = value
	case key == "history_file":
		cfg.HistoryFile = value
	case key == "history_max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("history_max: %q is not a non-negative integer", value)
		}
		cfg.HistoryMax = n
	case key == "executor_type":
		if value != "recursive" && value != "flatten" {
			return fmt.Errorf("executor_type: %q is not recursive or flatten", value)
		}
		cfg.ExecutorType = value
	case strings.HasPrefix(key, "alias."):
		cfg.Aliases[strings.TrimPrefix(key, "alias.")] = value
	case strings.HasPrefix(key, "env."):
		cfg.EnvOverrides[strings.TrimPrefix(key, "env.")] = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// ExpandHistoryPath resolves a leading "~" in HistoryFile against home,
// mirroring the shell's own tilde expansion rule (expand.tilde).
func (cfg *Config) ExpandHistoryPath(home string) string {
	if home == "" || cfg.HistoryFile != "~" && !strings.HasPrefix(cfg.HistoryFile, "~/") {
		return cfg.HistoryFile
	}
	return home + cfg.HistoryFile[1:]
}
