// Package textnorm cleans raw pasted wine-list text and splits it into
// per-record candidate lines. Real-world pastes carry invisible Unicode
// (zero-width spaces, BOM, NBSP), decorative punctuation from styled
// menus, and trailing price figures; all of that is noise to the field
// extractor and is stripped here. The functions are pure: callers hold
// the text buffer, nothing is mutated in place.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	// MinLineLength is the post-cleaning length under which a line is
	// discarded as noise (page numbers, separators, orphan fragments).
	// Chosen empirically; short but valid wine names survive, very
	// short garbage does not. A heuristic, not a guarantee.
	MinLineLength = 10

	// giantLineLength triggers the price-delimited re-split when the
	// whole paste collapsed into a single long line.
	giantLineLength = 200
)

// priceToken matches an embedded or trailing price figure such as
// "85€", "- 8,50 €" or "18 euro". Detected before decorative
// punctuation is removed so the leading dash variants still match.
var priceToken = regexp.MustCompile(`(?i)[-–—]?\s*\d{1,4}(?:[.,]\d{1,2})?\s*(?:€|euro\b)`)

// invisibleToSpace converts zero-width/control/separator characters to
// a plain space so word boundaries survive the cleanup.
var invisibleToSpace = runes.Map(func(r rune) rune {
	switch r {
	case '\u00a0', // NBSP
		'\u200b', '\u200c', '\u200d', // zero-width space/joiners
		'\ufeff', // BOM
		'\u2028', '\u2029', // line/paragraph separators
		'\u00ad': // soft hyphen
		return ' '
	}
	if r < 0x20 && r != '\t' {
		return ' '
	}
	return r
})

// decorative drops punctuation that styled lists sprinkle between
// fields. The euro sign is included for stray occurrences left after
// price-token removal.
var decorative = runes.Remove(runes.Predicate(func(r rune) bool {
	switch r {
	case '€', '¤', '–', '—', '‘', '’', '“', '”', '…', '•', '·', '*':
		return true
	}
	return false
}))

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)

// Line is one cleaned candidate line, with its 0-based position in the
// original paste for traceability.
type Line struct {
	N    int
	Text string
}

// CleanLine strips price tokens, invisible characters and decorative
// punctuation from a single line, collapses repeated whitespace and
// trims. The result may be empty.
func CleanLine(s string) string {
	s = priceToken.ReplaceAllString(s, " ")
	s, _, _ = transform.String(transform.Chain(invisibleToSpace, decorative), s)
	s = multiSpace.ReplaceAllString(s, "  ") // keep a wide gap detectable, just bounded
	return strings.TrimSpace(s)
}

// Lines normalizes a raw multi-line paste into ordered candidate
// lines. Empty output is a valid "nothing to import" outcome.
//
// Special case: when cleaning yields exactly one line longer than
// ~200 characters (a paste with all newlines eaten), the original
// text is re-split using price tokens as record boundaries before
// the length filter applies.
func Lines(text string) []Line {
	raw := strings.Split(text, "\n")

	cleaned := make([]Line, 0, len(raw))
	for i, r := range raw {
		c := CleanLine(r)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, Line{N: i, Text: c})
	}

	if len(cleaned) == 1 && len(cleaned[0].Text) > giantLineLength {
		if parts := resplitByPrices(raw[cleaned[0].N]); len(parts) > 1 {
			out := make([]Line, 0, len(parts))
			for _, p := range parts {
				if len(p) >= MinLineLength {
					out = append(out, Line{N: cleaned[0].N, Text: p})
				}
			}
			return out
		}
	}

	out := cleaned[:0]
	for _, l := range cleaned {
		if len(l.Text) >= MinLineLength {
			out = append(out, l)
		}
	}
	return out
}

// resplitByPrices cuts a raw single line after each price token, so
// every "name ... price" pair becomes one record, then cleans each
// segment. Returns nil when no price token is present.
func resplitByPrices(raw string) []string {
	locs := priceToken.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for _, loc := range locs {
		seg := raw[start:loc[1]]
		if c := CleanLine(seg); c != "" {
			parts = append(parts, c)
		}
		start = loc[1]
	}
	if tail := CleanLine(raw[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}
