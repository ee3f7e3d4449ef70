package matrix

import "testing"

func TestLookupBaseLayer(t *testing.T) {
	cases := map[rune]Position{
		'q':  {Row: 0, Col: 1},
		'g':  {Row: 1, Col: 5},
		'y':  {Row: 4, Col: 0},
		'\'': {Row: 5, Col: 5},
		'/':  {Row: 6, Col: 4},
		' ':  Space,
		'\n': Enter,
	}
	for r, want := range cases {
		got, ok := Lookup(r)
		if !ok {
			t.Fatalf("expected %q to be mapped", r)
		}
		if len(got) != 1 || got[0] != want {
			t.Fatalf("lookup %q: expected %v, got %v", r, want, got)
		}
	}
}

func TestLookupShiftUsesOppositeHalf(t *testing.T) {
	got, ok := Lookup('A')
	if !ok || len(got) != 2 {
		t.Fatalf("expected shift chord for 'A', got %v", got)
	}
	if got[0] != RShift || got[1] != (Position{Row: 1, Col: 1}) {
		t.Fatalf("unexpected chord %v", got)
	}
	got, ok = Lookup('?')
	if !ok || got[0] != Shift || got[1] != (Position{Row: 6, Col: 4}) {
		t.Fatalf("unexpected chord for '?': %v", got)
	}
}

func TestLookupLayers(t *testing.T) {
	got, ok := Lookup('7')
	if !ok || len(got) != 2 || got[0] != Raise || got[1] != (Position{Row: 4, Col: 1}) {
		t.Fatalf("unexpected chord for '7': %v", got)
	}
	got, ok = Lookup('!')
	if !ok || len(got) != 2 || got[0] != Lower || got[1] != (Position{Row: 0, Col: 1}) {
		t.Fatalf("unexpected chord for '!': %v", got)
	}
	if _, ok := Lookup('é'); ok {
		t.Fatalf("expected unmapped rune")
	}
}

func TestHalves(t *testing.T) {
	if (Position{Row: 3, Col: 5}).Half() != Left {
		t.Fatalf("row 3 belongs to the left half")
	}
	if (Position{Row: 4, Col: 0}).Half() != Right {
		t.Fatalf("row 4 belongs to the right half")
	}
	if Right.String() != "right" || Left.String() != "left" {
		t.Fatalf("unexpected half names")
	}
}
