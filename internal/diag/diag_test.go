package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"brackets/internal/source"
)

func TestBagLimitAndDropped(t *testing.T) {
	bag := NewBag(2)
	for i := range 3 {
		bag.Add(NewError(CollNotConstructible, source.Span{Start: uint32(i)}, "x"))
	}
	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
}

func TestBagForceBypassesLimit(t *testing.T) {
	bag := NewBag(1)
	bag.Add(NewError(CollNotConstructible, source.Span{}, "x"))
	bag.Force(New(SevInfo, ObsTimings, source.NoSpan, "timings"))
	if bag.Len() != 2 || bag.Dropped() != 0 || !bag.HasErrors() {
		t.Fatalf("len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
	if Severity(9).String() != "UNKNOWN" || SevWarning.String() != "WARNING" {
		t.Fatal("severity names")
	}
}

func TestBagSortIsStable(t *testing.T) {
	bag := NewBag(8)
	bag.Add(NewError(CollNoTargetType, source.Span{Start: 5, End: 6}, "b"))
	bag.Add(New(SevWarning, CollObsoleteMember, source.Span{Start: 1, End: 2}, "w"))
	bag.Add(NewError(CollUndefinedName, source.Span{Start: 1, End: 2}, "a"))
	bag.Sort()
	want := []Code{CollUndefinedName, CollObsoleteMember, CollNoTargetType}
	if diff := cmp.Diff(want, bag.Codes()); diff != "" {
		t.Fatalf("sorted codes mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(8)
	r := NewDedupReporter(BagReporter{Bag: bag})
	d := NewError(CollNoTargetType, source.Span{Start: 1, End: 3}, "no target")
	r.Report(d)
	r.Report(d)
	r.Report(NewError(CollNoTargetType, source.Span{Start: 4, End: 6}, "no target"))
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
}

func TestParseCode(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Code
	}{
		{"NOT_CONSTRUCTIBLE", CollNotConstructible},
		{"no_target_type", CollNoTargetType},
		{"CEX3003", CollCantInferTypeArgs},
	} {
		got, ok := ParseCode(tt.in)
		if !ok || got != tt.want {
			t.Errorf("ParseCode(%q) = %v, %v", tt.in, got, ok)
		}
	}
	if _, ok := ParseCode("NOPE"); ok {
		t.Error("unexpected success for unknown code")
	}
}

func TestErrorfCarriesArgs(t *testing.T) {
	d := Errorf(CollNotConstructible, source.NoSpan, "cannot initialize type '%s' with a collection expression", "object")
	if diff := cmp.Diff([]string{"object"}, d.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCodesAreSortedAndDescribed(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 || codes[0] != CollInfo {
		t.Fatalf("codes = %v", codes)
	}
	for i, c := range codes {
		if i > 0 && codes[i-1] >= c {
			t.Fatalf("codes not sorted at %d: %v", i, codes)
		}
		if c.Title() == UnknownCode.Title() {
			t.Fatalf("%s has no description", c.ID())
		}
	}
}
