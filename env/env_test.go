package env

import "testing"

func TestSetGetUnset(t *testing.T) {
	e := &Environment{vars: map[string]Variable{}}
	e.Set("FOO", "bar")
	if v, ok := e.Get("FOO"); !ok || v != "bar" {
		t.Fatalf("Get(FOO) = %q, %v, want bar, true", v, ok)
	}
	e.Unset("FOO")
	if _, ok := e.Get("FOO"); ok {
		t.Fatalf("FOO still set after Unset")
	}
}

func TestSetPreservesExportFlag(t *testing.T) {
	e := &Environment{vars: map[string]Variable{}}
	e.Export("FOO", strPtr("1"))
	e.Set("FOO", "2")
	v := e.vars["FOO"]
	if !v.Exported || v.Value != "2" {
		t.Fatalf("got %+v, want Exported=true Value=2", v)
	}
}

func TestNewVariableNotExportedByDefault(t *testing.T) {
	e := &Environment{vars: map[string]Variable{}}
	e.Set("FOO", "bar")
	if e.vars["FOO"].Exported {
		t.Fatalf("shell-created variable should default to Exported=false")
	}
}

func TestExportedPairs(t *testing.T) {
	e := &Environment{vars: map[string]Variable{
		"A": {Value: "1", Exported: true},
		"B": {Value: "2", Exported: false},
	}}
	pairs := e.ExportedPairs()
	if len(pairs) != 1 || pairs[0] != "A=1" {
		t.Fatalf("got %v, want [A=1]", pairs)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := &Environment{vars: map[string]Variable{"A": {Value: "1"}}}
	c := e.Clone()
	c.Set("A", "2")
	c.Set("B", "new")
	if v, _ := e.Get("A"); v != "1" {
		t.Fatalf("clone mutation leaked into original: A = %q", v)
	}
	if _, ok := e.Get("B"); ok {
		t.Fatalf("clone addition leaked into original")
	}
}

func TestNewImportsOSEnvironAsExported(t *testing.T) {
	e := New()
	found := false
	e.Each(func(name string, v Variable) {
		if v.Exported {
			found = true
		}
	})
	if !found {
		t.Fatalf("New() produced no exported variables from os.Environ()")
	}
}

func strPtr(s string) *string { return &s }
