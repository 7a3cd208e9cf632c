package s2_features

import (
	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// InferStock replaces each row's in_stock with the value lag rows earlier for
// the same product (own value when there is none), then forces in_stock=1 on
// rows with sales. Output is sorted by (product_id, date).
func InferStock(ds *dataset.Dataset, lag int) (*dataset.Dataset, error) {
	if err := ds.Require(contracts.StageFeatures.String(), dataset.ColProductID, dataset.ColDate, dataset.ColInStock, dataset.ColQuantity); err != nil {
		return nil, err
	}

	out := ds.Clone()
	out.SortByProductDate()

	for _, group := range out.GroupByProduct() {
		observed := make([]int, len(group))
		for i, r := range group {
			observed[i] = r.InStock
		}

		for i, r := range group {
			if lag > 0 && i >= lag {
				r.InStock = observed[i-lag]
			}
			if r.QuantityKnown && r.Quantity > 0 {
				r.InStock = 1
			}
		}
	}

	return out, nil
}
