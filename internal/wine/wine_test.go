package wine

import "testing"

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already_canonical", "BAROLO BRUNATE", "BAROLO BRUNATE"},
		{"lowercase", "barolo brunate", "BAROLO BRUNATE"},
		{"mixed_and_padded", "  Soave Classico \t", "SOAVE CLASSICO"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MatchKey(tc.in); got != tc.want {
				t.Fatalf("MatchKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKeyHashEquivalence(t *testing.T) {
	t.Parallel()
	if KeyHash("Barolo 2017") != KeyHash("  BAROLO 2017 ") {
		t.Fatal("hashes of equivalent names differ")
	}
	if KeyHash("Barolo") == KeyHash("Barbaresco") {
		t.Fatal("distinct names collided (unexpected with xxh3 on short input)")
	}
}

func TestTypeForCategory(t *testing.T) {
	tests := []struct {
		label  string
		want   string
		wantOK bool
	}{
		{"ROSSI", "rosso", true},
		{"rossi", "rosso", true},
		{" Bianchi ", "bianco", true},
		{"BOLLICINE ITALIANE", "bollicina", true},
		{"VINI DOLCI", "dolce", true},
		{"SPIRITS", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := TypeForCategory(tc.label)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("TypeForCategory(%q) = (%q, %v), want (%q, %v)", tc.label, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNewBatch(t *testing.T) {
	t.Parallel()
	cands := []Candidate{{Name: "A"}, {Name: "B"}}
	b := NewBatch("ROSSI", cands)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if len(b.Confirmed) != 2 {
		t.Fatalf("Confirmed slots = %d, want 2", len(b.Confirmed))
	}
	for i, c := range b.Confirmed {
		if c != nil {
			t.Fatalf("Confirmed[%d] pre-filled", i)
		}
	}
	if b.Cursor != 0 {
		t.Fatalf("Cursor = %d, want 0", b.Cursor)
	}
	if b.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("batch ID not assigned")
	}
}
