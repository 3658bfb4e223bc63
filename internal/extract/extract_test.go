package extract

import (
	"strings"
	"testing"

	"cantina/internal/wine"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return New(DefaultKnowledge())
}

func TestCaptureVintage(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantYear string
	}{
		{"bare_year_trailing", "Barolo DOCG Brunate 2017", "2017"},
		{"bare_year_leading", "2017 Barolo Brunate", "2017"},
		{"no_year", "Soave Classico", ""},
		{"out_of_range_low", "Vino 1899", ""},
		{"out_of_range_high", "Vino 2100", ""},
		{"part_of_longer_number_ignored", "Lotto 201754", ""},
		{"apostrophe_shorthand", "Ribolla Gialla '21", "2021"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			year, rest := captureVintage(tc.in)
			if year != tc.wantYear {
				t.Fatalf("year = %q, want %q (rest %q)", year, tc.wantYear, rest)
			}
			if year != "" && strings.Contains(rest, year) {
				t.Fatalf("year %q still present in residual %q", year, rest)
			}
		})
	}
}

// Excising a mid-line year must not leave a double-space seam: the
// column-gap rule would read it as an aligned export and cut the name
// short. Real tabs and wider runs stay untouched.
func TestCaptureVintageSeam(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantRest string
	}{
		{"single_spaces_collapse", "Barolo 2017 Brunate Vietti", "Barolo Brunate Vietti"},
		{"shorthand_single_spaces_collapse", "Ribolla '21 Gialla", "Ribolla Gialla"},
		{"tab_columns_preserved", "Barolo\t2017\tVietti", "Barolo\t\tVietti"},
		{"wide_gap_before_year_preserved", "Barolo  2017 Vietti", "Barolo   Vietti"},
		{"trailing_year", "Barolo DOCG Brunate 2017", "Barolo DOCG Brunate "},
		{"leading_year", "2017 Barolo Brunate", " Barolo Brunate"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, rest := captureVintage(tc.in); rest != tc.wantRest {
				t.Fatalf("rest = %q, want %q", rest, tc.wantRest)
			}
		})
	}
}

func TestNormalizeVintageCutoff(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"'99", "1999"},
		{"'08", "2008"},
		{"'25", "2025"},
		{"'26", "1926"},
		{"99", "1999"},
		{"2017", "2017"},
		{" 2017 ", "2017"},
		{"n.d.", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeVintage(tc.in); got != tc.want {
			t.Errorf("NormalizeVintage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLineWideGapRoundTrip(t *testing.T) {
	t.Parallel()
	x := newTestExtractor(t)

	f := x.Line("NOME VINO\tPRODUTTORE, REGIONE")
	if f.Name != "NOME VINO" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Producer != "PRODUTTORE" {
		t.Errorf("producer = %q", f.Producer)
	}
	if f.Provenance != "REGIONE" {
		t.Errorf("provenance = %q", f.Provenance)
	}
	if f.ProducerGuessed {
		t.Error("extracted producer marked as guessed")
	}
}

func TestLineRules(t *testing.T) {
	x := newTestExtractor(t)

	tests := []struct {
		name           string
		in             string
		wantName       string
		wantProducer   string
		wantProvenance string
		wantVintage    string
		wantGuessed    bool
	}{
		{
			name:           "wide_gap_region_keyword_no_comma",
			in:             "Barbera d'Asti  Vietti Piemonte",
			wantName:       "BARBERA D'ASTI",
			wantProducer:   "Vietti",
			wantProvenance: "PIEMONTE",
		},
		{
			name:           "comma_split_with_region",
			in:             "Gavi di Gavi, La Scolca, Piemonte",
			wantName:       "GAVI DI GAVI",
			wantProducer:   "La Scolca",
			wantProvenance: "PIEMONTE",
		},
		{
			name:           "comma_split_without_region",
			in:             "Traminer Aromatico, Cantina Tramin",
			wantName:       "TRAMINER AROMATICO",
			wantProducer:   "Cantina Tramin",
			wantProvenance: "",
		},
		{
			name:         "whole_line_with_fragment_lookup",
			in:           "Barolo DOCG Brunate 2017",
			wantName:     "BAROLO DOCG BRUNATE",
			wantProducer: "MARCHESI DI BAROLO",
			wantVintage:  "2017",
			wantGuessed:  true,
		},
		{
			name:         "mid_line_vintage_keeps_full_name",
			in:           "Barolo 2017 Brunate Vietti",
			wantName:     "BAROLO BRUNATE VIETTI",
			wantProducer: "MARCHESI DI BAROLO",
			wantVintage:  "2017",
			wantGuessed:  true,
		},
		{
			name:         "whole_line_unresolved_producer",
			in:           "Soave Classico DOC 2022",
			wantName:     "SOAVE CLASSICO DOC",
			wantProducer: wine.PlaceholderProducer,
			wantVintage:  "2022",
		},
		{
			name:         "excluded_word_never_a_producer",
			in:           "Prosecco di Valdobbiadene\tSPUMANTE",
			wantName:     "PROSECCO DI VALDOBBIADENE",
			wantProducer: wine.PlaceholderProducer,
		},
		{
			name:           "region_match_is_whole_word_only",
			in:             "Rosso di Collina\tCasa Vetnale",
			wantName:       "ROSSO DI COLLINA",
			wantProducer:   "Casa Vetnale", // "ETNA" inside a word must not match
			wantProvenance: "",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := x.Line(tc.in)
			if f.Name != tc.wantName {
				t.Errorf("name = %q, want %q", f.Name, tc.wantName)
			}
			if f.Producer != tc.wantProducer {
				t.Errorf("producer = %q, want %q", f.Producer, tc.wantProducer)
			}
			if f.Provenance != tc.wantProvenance {
				t.Errorf("provenance = %q, want %q", f.Provenance, tc.wantProvenance)
			}
			if f.Vintage != tc.wantVintage {
				t.Errorf("vintage = %q, want %q", f.Vintage, tc.wantVintage)
			}
			if f.ProducerGuessed != tc.wantGuessed {
				t.Errorf("guessed = %v, want %v", f.ProducerGuessed, tc.wantGuessed)
			}
		})
	}
}

// A line that cleaned down to nothing still produces a correctable
// candidate, never an empty name.
func TestLineEmptyFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()
	x := newTestExtractor(t)
	f := x.Line("")
	if f.Name != wine.PlaceholderName {
		t.Fatalf("name = %q, want placeholder", f.Name)
	}
	if f.Producer != wine.PlaceholderProducer {
		t.Fatalf("producer = %q, want placeholder", f.Producer)
	}
}

func TestCandidateTraceability(t *testing.T) {
	t.Parallel()
	x := newTestExtractor(t)
	c := x.Candidate("Etna Rosso, Graci, Sicilia", 7)
	if c.SourceLine != 7 {
		t.Fatalf("source line = %d, want 7", c.SourceLine)
	}
	if c.Stock != -1 {
		t.Fatalf("stock = %d, want -1 (not provided)", c.Stock)
	}
}
