// Package flow implements the per-record confirmation workflow that
// turns a parsed candidate batch into confirmed records ready for the
// merge engine. Transitions are pure in-memory operations; nothing is
// persisted until Commit.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cantina/internal/merge"
	"cantina/internal/wine"
)

var (
	// ErrNothingToImport reports a Start over a batch with no usable
	// candidates.
	ErrNothingToImport = errors.New("nothing to import")

	// ErrIncomplete reports a SaveAndNext blocked by a missing
	// mandatory field; the workflow stays on the current record.
	ErrIncomplete = errors.New("record incomplete")
)

// State names the workflow position.
type State int

const (
	StateIdle State = iota
	StateReviewing
	StateSummary
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReviewing:
		return "reviewing"
	case StateSummary:
		return "summary"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Form carries the editable fields the operator sees for one record.
type Form struct {
	Name       string  `json:"name"`
	Vintage    string  `json:"vintage"`
	Producer   string  `json:"producer"`
	Provenance string  `json:"provenance"`
	Category   string  `json:"category"`
	Supplier   string  `json:"supplier"`
	CostPrice  float64 `json:"cost_price"`
	SellPrice  float64 `json:"sell_price"`
	Stock      int     `json:"stock"`

	// CategoryToAll propagates the chosen category to every record
	// not yet reviewed.
	CategoryToAll bool `json:"category_to_all"`
}

// Summary aggregates the confirmed batch for the final review screen.
type Summary struct {
	Count          int              `json:"count"`
	TotalSellValue float64          `json:"total_sell_value"`
	Producers      int              `json:"producers"`
	Records        []wine.Confirmed `json:"records"`
}

// Flow is the state machine for one operator session. It is not safe
// for concurrent use; each import session owns its own Flow.
type Flow struct {
	state           State
	batch           *wine.Batch
	defaultCategory string
}

func New() *Flow {
	return &Flow{state: StateIdle}
}

// State returns the current workflow state.
func (f *Flow) State() State { return f.state }

// Start loads a batch and moves to reviewing the first record. Empty
// padding rows are dropped; a batch with nothing left returns
// ErrNothingToImport and the flow stays Idle.
func (f *Flow) Start(batch *wine.Batch) error {
	kept := batch.Candidates[:0:0]
	for _, c := range batch.Candidates {
		if !c.Empty() {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ErrNothingToImport
	}

	f.batch = wine.NewBatch(batch.Category, kept)
	f.defaultCategory = batch.Category
	f.state = StateReviewing
	return nil
}

// Current returns the form for the record under review, pre-filled
// from the candidate (or from the already-confirmed values when the
// operator navigated back), plus the cursor position and batch size.
func (f *Flow) Current() (Form, int, int, error) {
	if f.state != StateReviewing {
		return Form{}, 0, 0, fmt.Errorf("no record under review in state %s", f.state)
	}

	i := f.batch.Cursor
	if prior := f.batch.Confirmed[i]; prior != nil {
		return formFrom(prior.Candidate), i, f.batch.Len(), nil
	}

	c := f.batch.Candidates[i]
	form := formFrom(c)
	if form.Category == "" {
		form.Category = f.defaultCategory
	}
	return form, i, f.batch.Len(), nil
}

func formFrom(c wine.Candidate) Form {
	return Form{
		Name:       c.Name,
		Vintage:    c.Vintage,
		Producer:   c.Producer,
		Provenance: c.Provenance,
		Category:   c.Category,
		Supplier:   c.Supplier,
		CostPrice:  c.CostPrice,
		SellPrice:  c.SellPrice,
		Stock:      c.Stock,
	}
}

// SaveAndNext validates the form, records it as confirmed and advances
// the cursor; the last record advances to Summary instead. A
// validation failure returns ErrIncomplete and the cursor does not
// move.
func (f *Flow) SaveAndNext(form Form) error {
	if f.state != StateReviewing {
		return fmt.Errorf("cannot save in state %s", f.state)
	}
	if err := validate(form); err != nil {
		return err
	}

	i := f.batch.Cursor
	src := f.batch.Candidates[i]
	f.batch.Confirmed[i] = &wine.Confirmed{Candidate: wine.Candidate{
		Name:       strings.ToUpper(strings.TrimSpace(form.Name)),
		Vintage:    strings.TrimSpace(form.Vintage),
		Producer:   strings.TrimSpace(form.Producer),
		Provenance: strings.TrimSpace(form.Provenance),
		Category:   strings.ToUpper(strings.TrimSpace(form.Category)),
		Supplier:   strings.TrimSpace(form.Supplier),
		CostPrice:  form.CostPrice,
		SellPrice:  form.SellPrice,
		Stock:      form.Stock,
		SourceLine: src.SourceLine,
	}}

	if form.CategoryToAll {
		// Forward only: records already confirmed keep what the
		// operator chose for them.
		f.defaultCategory = strings.ToUpper(strings.TrimSpace(form.Category))
	}

	if i == f.batch.Len()-1 {
		f.state = StateSummary
		return nil
	}
	f.batch.Cursor = i + 1
	return nil
}

func validate(form Form) error {
	switch {
	case strings.TrimSpace(form.Name) == "":
		return fmt.Errorf("%w: name", ErrIncomplete)
	case strings.TrimSpace(form.Producer) == "":
		return fmt.Errorf("%w: producer", ErrIncomplete)
	case strings.EqualFold(strings.TrimSpace(form.Producer), wine.PlaceholderProducer):
		return fmt.Errorf("%w: producer is the placeholder", ErrIncomplete)
	case strings.TrimSpace(form.Provenance) == "":
		return fmt.Errorf("%w: provenance", ErrIncomplete)
	case strings.TrimSpace(form.Category) == "":
		return fmt.Errorf("%w: category", ErrIncomplete)
	}
	return nil
}

// Back moves to the previous record, keeping its confirmed values for
// re-editing. Unavailable at the first record.
func (f *Flow) Back() error {
	if f.state != StateReviewing {
		return fmt.Errorf("cannot go back in state %s", f.state)
	}
	if f.batch.Cursor == 0 {
		return errors.New("already at the first record")
	}
	f.batch.Cursor--
	return nil
}

// Summary returns the aggregate view of the confirmed batch.
func (f *Flow) Summary() (Summary, error) {
	if f.state != StateSummary {
		return Summary{}, fmt.Errorf("no summary in state %s", f.state)
	}

	var s Summary
	producers := map[string]bool{}
	for _, c := range f.batch.Confirmed {
		if c == nil {
			continue
		}
		s.Count++
		s.TotalSellValue += c.SellPrice
		producers[wine.MatchKey(c.Producer)] = true
		s.Records = append(s.Records, *c)
	}
	s.Producers = len(producers)
	return s, nil
}

// Commit persists the confirmed batch through the merge engine. On
// success the flow resets to Idle; on failure the Summary state is
// kept intact so the operator can retry without re-entering data.
func (f *Flow) Commit(ctx context.Context, m *merge.Merger, userID string) ([]merge.Result, error) {
	if f.state != StateSummary {
		return nil, fmt.Errorf("cannot commit in state %s", f.state)
	}

	recs := make([]wine.Confirmed, 0, f.batch.Len())
	for _, c := range f.batch.Confirmed {
		if c != nil {
			recs = append(recs, *c)
		}
	}

	results, err := m.Apply(ctx, userID, recs)
	if err != nil {
		return results, err
	}
	f.reset()
	return results, nil
}

// Cancel abandons the session from any state. Pure in-memory reset.
func (f *Flow) Cancel() { f.reset() }

func (f *Flow) reset() {
	f.state = StateIdle
	f.batch = nil
	f.defaultCategory = ""
}
