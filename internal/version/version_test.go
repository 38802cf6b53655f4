package version

import "testing"

func TestStringWithoutCommit(t *testing.T) {
	if got := String(); got != Version {
		t.Errorf("String() = %q, want %q", got, Version)
	}
}

func TestStringWithCommit(t *testing.T) {
	old := GitCommit
	GitCommit = "abc1234"
	defer func() { GitCommit = old }()

	want := Version + " (abc1234)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
