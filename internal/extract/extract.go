// Package extract turns one cleaned wine-list line into structured
// fields: name, vintage year, producer and provenance. The heuristics
// are an explicit ordered rule list evaluated in priority order, so
// each rule can be tested on its own. Failures are never errors here;
// a field the rules cannot resolve degrades to empty or to a
// placeholder sentinel, and mandatory human confirmation downstream is
// the correctness backstop.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"cantina/internal/wine"
)

// twoDigitCutoff is the century pivot for apostrophe vintages:
// '00..'25 map to 2000..2025, '26..'99 map to 1926..1999.
const twoDigitCutoff = 25

var (
	// A bare 4-digit year in [1900,2099] that is not part of a longer
	// number.
	vintageRe = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)[0-9]{2})(?:[^0-9]|$)`)

	// Two-digit shorthand preceded by an apostrophe, e.g. '17.
	shortVintageRe = regexp.MustCompile(`['’]([0-9]{2})(?:[^0-9]|$)`)

	// Wide gap: a tab or two-plus consecutive spaces, the visual
	// column boundary of aligned list exports.
	wideGapRe = regexp.MustCompile(`\t+| {2,}`)

	fourDigitYearRe = regexp.MustCompile(`^(?:19|20)[0-9]{2}$`)
	twoDigitYearRe  = regexp.MustCompile(`^['’]?([0-9]{2})$`)
)

// Fields is the outcome of extracting one line. Name is never empty;
// Producer is never empty either, but may be the placeholder sentinel
// or a best-effort guess that the operator must confirm.
type Fields struct {
	Name            string
	Vintage         string
	Producer        string
	Provenance      string
	ProducerGuessed bool
}

// rule pairs a predicate with a splitter. Rules run in slice order;
// the first rule whose predicate matches decides the line's shape.
type rule struct {
	name    string
	applies func(line string) bool
	split   func(x *Extractor, line string) (name, producer, provenance string)
}

// Extractor applies the rule list using injected Knowledge tables.
type Extractor struct {
	know      Knowledge
	excluded  map[string]struct{}
	regions   []regionPattern
	fragments map[string]string
	rules     []rule
}

type regionPattern struct {
	name string
	re   *regexp.Regexp
}

// New builds an Extractor from the given tables, precomputing the
// lookup sets and whole-word region patterns.
func New(k Knowledge) *Extractor {
	x := &Extractor{
		know:      k,
		excluded:  make(map[string]struct{}, len(k.ExcludedProducers)),
		fragments: make(map[string]string, len(k.ProducerByFragment)),
	}
	for _, w := range k.ExcludedProducers {
		x.excluded[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}
	for frag, prod := range k.ProducerByFragment {
		x.fragments[strings.ToUpper(strings.TrimSpace(frag))] = prod
	}
	for _, r := range k.Regions {
		x.regions = append(x.regions, regionPattern{
			name: strings.ToUpper(r),
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r) + `\b`),
		})
	}

	x.rules = []rule{
		{
			name:    "wide-gap",
			applies: func(line string) bool { return wideGapRe.MatchString(line) },
			split:   (*Extractor).splitWideGap,
		},
		{
			name:    "comma",
			applies: func(line string) bool { return strings.Contains(line, ",") },
			split:   (*Extractor).splitComma,
		},
		{
			name:    "whole-line",
			applies: func(string) bool { return true },
			split: func(_ *Extractor, line string) (string, string, string) {
				return line, "", ""
			},
		},
	}
	return x
}

// Line extracts structured fields from one cleaned line.
func (x *Extractor) Line(line string) Fields {
	vintage, rest := captureVintage(line)

	var name, producer, provenance string
	for _, r := range x.rules {
		if r.applies(rest) {
			name, producer, provenance = r.split(x, rest)
			break
		}
	}

	name = tidy(name)
	producer = tidy(producer)
	provenance = tidy(provenance)

	// Wine-style words are never producers or provenances.
	if x.isExcluded(producer) {
		producer = ""
	}
	if x.isExcluded(provenance) {
		provenance = ""
	}

	f := Fields{
		Vintage:    vintage,
		Producer:   producer,
		Provenance: provenance,
	}

	if f.Producer == "" {
		if p, ok := x.lookupProducer(name); ok {
			f.Producer = p
			f.ProducerGuessed = true
		}
	}
	if f.Producer == "" {
		f.Producer = wine.PlaceholderProducer
	}

	if name == "" {
		name = wine.PlaceholderName
	}
	f.Name = strings.ToUpper(name)
	return f
}

// Candidate extracts a line into a wine.Candidate carrying the source
// line index. Stock is marked "not provided".
func (x *Extractor) Candidate(line string, sourceLine int) wine.Candidate {
	f := x.Line(line)
	return wine.Candidate{
		Name:            f.Name,
		Vintage:         f.Vintage,
		Producer:        f.Producer,
		Provenance:      f.Provenance,
		ProducerGuessed: f.ProducerGuessed,
		Stock:           -1,
		SourceLine:      sourceLine,
	}
}

// splitWideGap handles visually aligned exports: the left column is
// the name, the right column carries producer and provenance either
// comma-separated or as free text with a region keyword.
func (x *Extractor) splitWideGap(line string) (name, producer, provenance string) {
	parts := wideGapRe.Split(line, 2)
	name = parts[0]
	meta := ""
	if len(parts) > 1 {
		meta = parts[1]
	}

	if i := strings.Index(meta, ","); i >= 0 {
		return name, meta[:i], meta[i+1:]
	}
	if region, rest, ok := x.findRegion(meta); ok {
		return name, rest, region
	}
	return name, meta, ""
}

// splitComma handles lines without column alignment: the first comma
// segment is the name, the remainder is searched for a region keyword
// to tell producer and provenance apart.
func (x *Extractor) splitComma(line string) (name, producer, provenance string) {
	segs := strings.Split(line, ",")
	name = segs[0]
	rest := strings.Join(segs[1:], ",")

	if region, remainder, ok := x.findRegion(rest); ok {
		return name, remainder, region
	}

	tail := segs[1:]
	producer = tail[0]
	if len(tail) > 1 {
		provenance = strings.Join(tail[1:], ", ")
	}
	return name, producer, provenance
}

// findRegion searches text for a known region keyword, whole-word and
// case-insensitive. On a hit it returns the canonical region name and
// the text with the keyword excised.
func (x *Extractor) findRegion(text string) (region, rest string, ok bool) {
	for _, rp := range x.regions {
		loc := rp.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		return rp.name, tidy(text[:loc[0]] + " " + text[loc[1]:]), true
	}
	return "", "", false
}

// lookupProducer checks the first two words of the name against the
// famous-fragment map. Best effort only; callers flag the result for
// operator review.
func (x *Extractor) lookupProducer(name string) (string, bool) {
	words := strings.Fields(strings.ToUpper(name))
	if len(words) > 2 {
		words = words[:2]
	}
	head := strings.Join(words, " ")
	if head == "" {
		return "", false
	}
	for frag, prod := range x.fragments {
		if strings.Contains(head, frag) {
			return prod, true
		}
	}
	return "", false
}

func (x *Extractor) isExcluded(s string) bool {
	if s == "" {
		return false
	}
	_, ok := x.excluded[strings.ToUpper(s)]
	return ok
}

// captureVintage finds and excises the vintage year: a bare 4-digit
// year in range first, then the apostrophe two-digit shorthand.
func captureVintage(line string) (year, rest string) {
	if m := vintageRe.FindStringSubmatchIndex(line); m != nil {
		year = line[m[2]:m[3]]
		return year, exciseJoin(line[:m[2]], line[m[3]:])
	}
	if m := shortVintageRe.FindStringSubmatchIndex(line); m != nil {
		n, _ := strconv.Atoi(line[m[2]:m[3]])
		return expandTwoDigit(n), exciseJoin(line[:m[0]], line[m[3]:])
	}
	return "", line
}

// exciseJoin rejoins the text around an excised vintage. A year that
// sat between single spaces would otherwise leave a two-space seam
// that reads as a column gap, so one space is dropped; tabs and wider
// runs are real column boundaries and pass through untouched.
func exciseJoin(left, right string) string {
	if strings.HasSuffix(left, " ") && strings.HasPrefix(right, " ") &&
		!strings.HasSuffix(left, "  ") && !strings.HasPrefix(right, "  ") {
		return left + right[1:]
	}
	return left + right
}

// NormalizeVintage canonicalizes a vintage cell from a spreadsheet:
// a 4-digit year passes through, a two-digit value (with or without
// apostrophe) expands using the century cutoff, anything else is
// empty.
func NormalizeVintage(s string) string {
	s = strings.TrimSpace(s)
	if fourDigitYearRe.MatchString(s) {
		return s
	}
	if m := twoDigitYearRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return expandTwoDigit(n)
	}
	return ""
}

func expandTwoDigit(n int) string {
	if n <= twoDigitCutoff {
		return strconv.Itoa(2000 + n)
	}
	return strconv.Itoa(1900 + n)
}

// tidy collapses whitespace runs and strips stray separators left by
// excisions.
func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,;-")
}
