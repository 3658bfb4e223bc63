// Package wine defines the domain model shared by the ingestion
// pipeline: candidate records produced by the parsers, confirmed
// records produced by the review workflow, and the stored inventory
// entity they reconcile against.
package wine

import (
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Placeholder sentinels. Extraction never emits an empty name or a
// silently missing producer; it emits these instead, and the review
// workflow refuses to confirm a record that still carries them.
const (
	PlaceholderName     = "VINO DA IDENTIFICARE"
	PlaceholderProducer = "DA COMPILARE"
)

// Candidate is a parsed-but-unconfirmed wine entry. Name is always
// non-empty after extraction (possibly the placeholder). Vintage is a
// normalized 4-digit year or empty. Producer and Provenance may be
// empty or, for Producer, the placeholder.
type Candidate struct {
	Name       string `json:"name"`
	Vintage    string `json:"vintage,omitempty"`
	Producer   string `json:"producer,omitempty"`
	Provenance string `json:"provenance,omitempty"`

	// ProducerGuessed marks a producer filled in from the curated
	// famous-name table rather than extracted from the line. Shown to
	// the operator for confirmation, never silently trusted.
	ProducerGuessed bool    `json:"producer_guessed,omitempty"`
	Category        string  `json:"category,omitempty"`
	Supplier        string  `json:"supplier,omitempty"`
	CostPrice       float64 `json:"cost_price"`
	SellPrice       float64 `json:"sell_price"`

	// Stock carries an explicit giacenza value when the source grid
	// provides one; -1 means "not provided".
	Stock int `json:"stock"`

	// SourceLine is the 0-based position in the original input, kept
	// for traceability back to the pasted text or spreadsheet row.
	SourceLine int `json:"source_line"`
}

// Empty reports whether the candidate is a blank grid-padding row.
func (c Candidate) Empty() bool {
	return strings.TrimSpace(c.Name) == ""
}

// Confirmed is a candidate that passed mandatory-field validation:
// Category, Provenance and a real (non-placeholder) Producer are all
// present. The review workflow constructs these as the operator
// confirms records; grid imports, where every field arrives from the
// sheet, construct them directly.
type Confirmed struct {
	Candidate
}

// Wine is the stored inventory entity owned by the persistence
// collaborator. For merge purposes it is identified by
// (UserID, MatchKey(Name)); Stock is the mutable quantity that must
// survive re-imports of the same named wine.
type Wine struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Supplier    string  `json:"supplier,omitempty"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	Price       float64 `json:"price"`
	Vintage     string  `json:"vintage,omitempty"`
	Region      string  `json:"region,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Supplier is the secondary stored collection; only the name matters
// to the import pipeline.
type Supplier struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// MatchKey returns the canonical merge key for a wine name:
// case-insensitive, trimmed. Name is the only natural key available
// from free-text import; two distinct wines sharing a name will merge
// (known limitation, see DESIGN.md).
func MatchKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// KeyHash returns a 64-bit hash of the match key, used for cheap
// intra-batch dedup maps.
func KeyHash(name string) uint64 {
	return xxh3.HashString(MatchKey(name))
}

// Batch is the unit of one parse operation: the ordered candidates,
// a sparse parallel list of confirmed records filled in as the
// operator proceeds, and the review cursor.
type Batch struct {
	ID         uuid.UUID
	Category   string
	Candidates []Candidate
	Confirmed  []*Confirmed
	Cursor     int
}

// NewBatch allocates a batch over the given candidates, with empty
// confirmation slots and the cursor at the first record.
func NewBatch(category string, candidates []Candidate) *Batch {
	return &Batch{
		ID:         uuid.New(),
		Category:   category,
		Candidates: candidates,
		Confirmed:  make([]*Confirmed, len(candidates)),
	}
}

// Len returns the number of candidates in the batch.
func (b *Batch) Len() int { return len(b.Candidates) }

// Category labels as they appear in list exports, and the stored wine
// type each maps to. Replace-mode imports delete by the mapped type.
const (
	CategoryBianchi           = "BIANCHI"
	CategoryRossi             = "ROSSI"
	CategoryRosati            = "ROSATI"
	CategoryBollicineItaliane = "BOLLICINE ITALIANE"
	CategoryBollicineFrancesi = "BOLLICINE FRANCESI"
	CategoryViniDolci         = "VINI DOLCI"
)

var categoryTypes = map[string]string{
	CategoryBianchi:           "bianco",
	CategoryRossi:             "rosso",
	CategoryRosati:            "rosato",
	CategoryBollicineItaliane: "bollicina",
	CategoryBollicineFrancesi: "champagne",
	CategoryViniDolci:         "dolce",
}

// TypeForCategory maps a category label to its stored wine type.
// The second result is false for unknown labels; destructive replace
// refuses to run on an unmapped category.
func TypeForCategory(label string) (string, bool) {
	t, ok := categoryTypes[strings.ToUpper(strings.TrimSpace(label))]
	return t, ok
}

// Categories lists the known category labels in display order.
func Categories() []string {
	return []string{
		CategoryBianchi,
		CategoryRossi,
		CategoryRosati,
		CategoryBollicineItaliane,
		CategoryBollicineFrancesi,
		CategoryViniDolci,
	}
}

// IsCategory reports whether s (trimmed, upper-cased) is a known
// category label.
func IsCategory(s string) bool {
	_, ok := categoryTypes[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}
