package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := Version
	Version = v
	t.Cleanup(func() { Version = orig })
}

func TestBanner(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	cases := []struct {
		in   string
		want string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"v2.0.0", "2.0.0"},
		{"not a version", "not a version"},
	}
	for _, tc := range cases {
		withVersion(t, tc.in)
		if got := Banner(); got != tc.want {
			t.Errorf("Banner(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShort(t *testing.T) {
	withVersion(t, " 1.0.0 ")
	got := Short()
	if got != "brackets 1.0.0 (language "+Language+")" {
		t.Fatalf("Short() = %q", got)
	}
	if !strings.HasPrefix(Language, "12") {
		t.Fatalf("Language = %q", Language)
	}
}
