package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Knowledge holds the curated lookup tables the extractor consults.
// The tables are data, not code: they ship with compiled-in defaults
// and can be replaced wholesale from a YAML file so the lists can be
// extended without touching parsing logic.
type Knowledge struct {
	// Regions are the provenance keywords searched for in free text.
	// Matching is case-insensitive and whole-word.
	Regions []string `yaml:"regions"`

	// ExcludedProducers are wine-style words that can never be a
	// producer name; an extracted producer equal to one of these is
	// discarded.
	ExcludedProducers []string `yaml:"excluded_producers"`

	// ProducerByFragment maps famous wine-name fragments to their
	// well-known producer, used as a best-effort fallback when no
	// producer could be extracted. Keys are upper-case fragments
	// checked for containment against the first two words of a name.
	ProducerByFragment map[string]string `yaml:"producer_by_fragment"`
}

// DefaultKnowledge returns the compiled-in tables.
func DefaultKnowledge() Knowledge {
	return Knowledge{
		Regions: []string{
			// Italy
			"PIEMONTE", "LANGHE", "ROERO", "TOSCANA", "CHIANTI",
			"MAREMMA", "BOLGHERI", "MONTALCINO", "VENETO",
			"VALPOLICELLA", "TRENTINO", "ALTO ADIGE", "FRIULI",
			"LOMBARDIA", "FRANCIACORTA", "OLTREPO PAVESE", "LIGURIA",
			"EMILIA ROMAGNA", "UMBRIA", "MARCHE", "ABRUZZO", "MOLISE",
			"LAZIO", "CAMPANIA", "PUGLIA", "BASILICATA", "CALABRIA",
			"SICILIA", "ETNA", "SARDEGNA", "VALLE D'AOSTA",
			// France, as Italian lists spell them
			"CHAMPAGNE", "BORGOGNA", "BORDEAUX", "ALSAZIA", "LOIRA",
			"RODANO", "PROVENZA",
		},
		ExcludedProducers: []string{
			"ROSSO", "BIANCO", "ROSATO", "DOCG", "DOC", "IGT", "IGP",
			"VINO", "SPUMANTE", "FRIZZANTE", "RISERVA", "CLASSICO",
			"SUPERIORE", "BRUT", "EXTRA BRUT", "DOSAGGIO ZERO",
			"MILLESIMATO", "METODO CLASSICO", "MAGNUM", "BIO",
			"BIOLOGICO", "DOLCE", "SECCO", "AMABILE", "PASSITO",
		},
		ProducerByFragment: map[string]string{
			"SASSICAIA":      "TENUTA SAN GUIDO",
			"TIGNANELLO":     "ANTINORI",
			"SOLAIA":         "ANTINORI",
			"CERVARO":        "ANTINORI",
			"ORNELLAIA":      "TENUTA DELL'ORNELLAIA",
			"MASSETO":        "TENUTA DELL'ORNELLAIA",
			"FLACCIANELLO":   "FONTODI",
			"BAROLO":         "MARCHESI DI BAROLO",
			"BARBARESCO":     "PRODUTTORI DEL BARBARESCO",
			"GIULIO FERRARI": "FERRARI TRENTO",
			"DOM PERIGNON":   "MOET & CHANDON",
			"CRISTAL":        "LOUIS ROEDERER",
		},
	}
}

// LoadKnowledge reads tables from a YAML file. Missing sections fall
// back to the compiled-in defaults, so a file may override just one
// list.
func LoadKnowledge(path string) (Knowledge, error) {
	def := DefaultKnowledge()

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("extract: read knowledge: %w", err)
	}

	var k Knowledge
	if err := yaml.Unmarshal(data, &k); err != nil {
		return def, fmt.Errorf("extract: parse knowledge: %w", err)
	}

	if len(k.Regions) == 0 {
		k.Regions = def.Regions
	}
	if len(k.ExcludedProducers) == 0 {
		k.ExcludedProducers = def.ExcludedProducers
	}
	if len(k.ProducerByFragment) == 0 {
		k.ProducerByFragment = def.ProducerByFragment
	}
	return k, nil
}
