package s0_ingest

import (
	"sort"
	"strings"

	"github.com/wonny/demandprep/internal/dataset"
)

// Quality summarises an ingested batch before cleaning
type Quality struct {
	Rows     int                `json:"rows"`
	Products int                `json:"products"`
	Coverage map[string]float64 `json:"coverage"` // share of non-blank cells per column
}

// Profile measures how complete each required column is
// ⭐ SSOT: S0 → S1 품질 스냅샷
func Profile(ds *dataset.Dataset, cols []string) Quality {
	q := Quality{
		Rows:     ds.Len(),
		Products: len(ds.ProductIDs()),
		Coverage: make(map[string]float64, len(cols)),
	}
	if ds.Len() == 0 {
		return q
	}

	for _, col := range cols {
		if !ds.Has(col) {
			q.Coverage[col] = 0
			continue
		}
		filled := 0
		for _, r := range ds.Records {
			if strings.TrimSpace(r.Cell(col)) != "" {
				filled++
			}
		}
		q.Coverage[col] = dataset.Ratio(float64(filled), float64(ds.Len()), 4)
	}
	return q
}

// Incomplete returns the columns whose coverage is below min
func (q Quality) Incomplete(min float64) []string {
	var cols []string
	for col, c := range q.Coverage {
		if c < min {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

// Metadata flattens the profile for a stage result
func (q Quality) Metadata() map[string]interface{} {
	md := map[string]interface{}{
		"rows":     q.Rows,
		"products": q.Products,
	}
	for col, c := range q.Coverage {
		md["coverage_"+col] = c
	}
	return md
}
