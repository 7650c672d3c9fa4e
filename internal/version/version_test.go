package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	v, c, d := Info()
	if v != Version || c != GitCommit || d != BuildDate {
		t.Errorf("Info() = %q, %q, %q; want package variables", v, c, d)
	}
}

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v9.9.9"

	s := String()
	if !strings.HasPrefix(s, "v9.9.9 (commit: ") {
		t.Errorf("String() = %q, want version prefix", s)
	}
	if !strings.Contains(s, "go") {
		t.Errorf("String() = %q, want Go runtime version", s)
	}
}
