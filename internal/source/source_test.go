package source

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("case.txt", []byte("ab\ncd\n\nef"))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("case.txt", []byte("first\nsecond\nthird"))
	f := fs.Get(id)
	for n, want := range map[uint32]string{1: "first", 2: "second", 3: "third", 4: ""} {
		if got := f.GetLine(n); got != want {
			t.Errorf("line %d: got %q, want %q", n, got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		flags FileFlags
	}{
		{"a\r\nb\rc", "a\nb\rc", FileNormalizedCRLF},
		{"\xEF\xBB\xBFx\r\n", "x\n", FileHadBOM | FileNormalizedCRLF},
		{"plain", "plain", 0},
	}
	for _, tt := range tests {
		out, flags := normalizeText([]byte(tt.in))
		if string(out) != tt.want || flags != tt.flags {
			t.Errorf("normalizeText(%q) = %q, %b; want %q, %b", tt.in, out, flags, tt.want, tt.flags)
		}
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("cover: got %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file cover must keep receiver, got %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Fatal("cover must contain receiver")
	}
}

func TestInternerNormalizesIdentifiers(t *testing.T) {
	in := NewInterner()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if norm.NFC.String(decomposed) != composed {
		t.Skip("unexpected normalization tables")
	}
	a := in.Intern(composed)
	b := in.Intern(decomposed)
	if a != b {
		t.Fatalf("expected equal IDs for canonically equivalent names, got %d and %d", a, b)
	}
	if s := in.MustLookup(a); s != composed {
		t.Fatalf("lookup returned %q", s)
	}
	if in.Intern("") != NoStringID {
		t.Fatal("empty string must map to NoStringID")
	}
}
