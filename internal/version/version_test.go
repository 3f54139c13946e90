package version

import "testing"

func TestString(t *testing.T) {
	Version, GitSHA, BuildTime = "v1.2.0", "abc123", "2026-01-02"
	defer func() { Version, GitSHA, BuildTime = "dev", "unknown", "unknown" }()

	if got, want := String(), "remapgen v1.2.0 (abc123, built 2026-01-02)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
