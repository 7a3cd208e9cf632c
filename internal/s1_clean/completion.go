package s1_clean

import (
	"sort"
	"time"

	"github.com/wonny/demandprep/internal/dataset"
)

type period struct {
	year, week int
	date       time.Time
}

func (p period) before(o period) bool {
	if !p.date.IsZero() || !o.date.IsZero() {
		return p.date.Before(o.date)
	}
	if p.year != o.year {
		return p.year < o.year
	}
	return p.week < o.week
}

// CompleteWeekly inserts a zero-sales row for every (product, year, week)
// missing from the batch; output rows = products × distinct weeks
func CompleteWeekly(ds *dataset.Dataset) (*dataset.Dataset, int) {
	return complete(ds, func(r *dataset.Record) period {
		return period{year: r.Year, week: r.Week}
	}, func(p period, r *dataset.Record) {
		r.Year, r.Week = p.year, p.week
	})
}

// CompleteDaily inserts a zero-sales row for every (product, date) missing from the batch
func CompleteDaily(ds *dataset.Dataset) (*dataset.Dataset, int) {
	return complete(ds, func(r *dataset.Record) period {
		return period{date: r.Date}
	}, func(p period, r *dataset.Record) {
		r.Date = p.date
	})
}

// complete cross-joins distinct products with distinct periods and left-joins
// the originals. Keys must be unique (run a Dedupe first); in_stock of new rows
// is forward-filled per product in period order, 0 before the first known value.
func complete(ds *dataset.Dataset, keyOf func(*dataset.Record) period, setPeriod func(period, *dataset.Record)) (*dataset.Dataset, int) {
	type key struct {
		productID string
		p         period
	}

	existing := make(map[key]*dataset.Record, ds.Len())
	templates := make(map[string]*dataset.Record)
	var products []string
	seenPeriod := make(map[period]bool)
	var periods []period

	for _, r := range ds.Records {
		p := keyOf(r)
		k := key{r.ProductID, p}
		if _, dup := existing[k]; !dup {
			existing[k] = r
		}
		if _, ok := templates[r.ProductID]; !ok {
			templates[r.ProductID] = r
			products = append(products, r.ProductID)
		}
		if !seenPeriod[p] {
			seenPeriod[p] = true
			periods = append(periods, p)
		}
	}

	sort.Strings(products)
	sort.Slice(periods, func(i, j int) bool { return periods[i].before(periods[j]) })

	out := &dataset.Dataset{Columns: append([]string(nil), ds.Columns...)}
	out.Records = make([]*dataset.Record, 0, len(products)*len(periods))
	inserted := 0

	for _, pid := range products {
		tmpl := templates[pid]
		lastStock := 0
		for _, p := range periods {
			if r, ok := existing[key{pid, p}]; ok {
				c := r.Clone()
				lastStock = c.InStock
				out.Records = append(out.Records, c)
				continue
			}

			placeholder := &dataset.Record{
				OriginalProductID: tmpl.OriginalProductID,
				ProductID:         tmpl.ProductID,
				ProductName:       tmpl.ProductName,
				Category:          tmpl.Category,
				QuantityKnown:     true,
				InStock:           lastStock,
			}
			setPeriod(p, placeholder)
			out.Records = append(out.Records, placeholder)
			inserted++
		}
	}

	return out, inserted
}
