package s1_clean

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// MiscellaneousCategory is the canonical bucket for blank or tax-rate categories
const MiscellaneousCategory = "miscellaneous"

// defaultSynonyms maps canonical spellings to the preferred one
var defaultSynonyms = map[string]string{
	"sauces_pickle":  "sauces_pickles",
	"washing_powder": "washing_powders",
	"petfood":        "pet_food",
	"lower_rate":     MiscellaneousCategory,
	"standard_rate":  MiscellaneousCategory,
	"zero_rate":      MiscellaneousCategory,
	"":               MiscellaneousCategory,
}

// Normalizer canonicalises categories and derives product identity
type Normalizer struct {
	synonyms map[string]string
}

// NewNormalizer merges extra synonyms over the built-in table
// Keys and values are canonicalised and chains are resolved, so Canonical stays idempotent.
func NewNormalizer(extra map[string]string) *Normalizer {
	raw := make(map[string]string, len(defaultSynonyms)+len(extra))
	for k, v := range defaultSynonyms {
		raw[k] = v
	}
	for k, v := range extra {
		raw[clean(k)] = clean(v)
	}

	resolved := make(map[string]string, len(raw))
	for k := range raw {
		target := k
		for hops := 0; hops <= len(raw); hops++ {
			next, ok := raw[target]
			if !ok || next == target {
				break
			}
			target = next
		}
		if target != k {
			resolved[k] = target
		}
	}

	return &Normalizer{synonyms: resolved}
}

// clean lower-cases, blanks every rune that is not a letter, digit, '_' or space,
// then collapses whitespace runs into a single '_'
func clean(raw string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			inSpace = false
		default:
			// punctuation and whitespace both become a separator
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		}
	}
	return b.String()
}

// Canonical returns the canonical category label
func (n *Normalizer) Canonical(raw string) string {
	c := clean(raw)
	if target, ok := n.synonyms[c]; ok {
		return target
	}
	return c
}

// ProductID is hex(md5(name + "_" + category))[:8]
func ProductID(name, category string) string {
	sum := md5.Sum([]byte(name + "_" + category))
	return hex.EncodeToString(sum[:])[:8]
}

// Apply canonicalises categories, keeps the source id as original_product_id
// and recomputes product_id from (product_name, canonical category)
func (n *Normalizer) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ds.Require(contracts.StageClean.String(), dataset.ColProductName, dataset.ColCategory); err != nil {
		return nil, err
	}

	out := ds.Clone()
	hadSourceID := out.Has(dataset.ColProductID)
	for _, r := range out.Records {
		if hadSourceID {
			r.OriginalProductID = r.ProductID
		}
		r.Category = n.Canonical(r.Category)
		r.ProductID = ProductID(r.ProductName, r.Category)
	}

	if hadSourceID {
		out.RenameColumn(dataset.ColProductID, dataset.ColOriginalProductID)
	}
	out.AddColumns(dataset.ColProductID)
	return out, nil
}
