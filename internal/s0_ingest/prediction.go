package s0_ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// PredictionRequest is the JSON body of a prediction preparation request
type PredictionRequest struct {
	PredictionDates []string            `json:"prediction_dates"`
	Products        []PredictionProduct `json:"products"`
}

// PredictionProduct is one product with its recent sales
type PredictionProduct struct {
	Details         ProductDetails `json:"details"`
	HistoricalSales []Sale         `json:"historical_sales"`
}

// ProductDetails are the static attributes repeated on every generated row
type ProductDetails struct {
	// SourceProductID is the caller's own id, echoed back on every row
	SourceProductID string  `json:"source_product_id,omitempty"`
	ProductID       string  `json:"product_id,omitempty"`
	ProductName     string  `json:"product_name"`
	Category        string  `json:"category"`
	PerItemValue    float64 `json:"per_item_value"`
	InStock         int     `json:"in_stock"` // stock balance; > 0 means in stock
}

// ColSourceProductID is the pass-through column holding ProductDetails.SourceProductID
const ColSourceProductID = "source_product_id"

// Sale is one observed day
type Sale struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

// PredictionColumns is the schema produced by the prediction payload
var PredictionColumns = []string{
	dataset.ColProductID, dataset.ColProductName, dataset.ColCategory,
	dataset.ColPerItemValue, dataset.ColInStock, dataset.ColDate, dataset.ColQuantity,
}

// DecodePrediction parses a prediction request body; unknown fields are ignored
func DecodePrediction(r io.Reader) (*PredictionRequest, error) {
	var req PredictionRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return nil, &contracts.ValidationError{Field: "body", Message: fmt.Sprintf("invalid prediction payload: %v", err)}
	}
	return &req, nil
}

// Validate checks that the payload can produce rows
func (p *PredictionRequest) Validate() error {
	if len(p.PredictionDates) == 0 {
		return &contracts.ValidationError{Field: "prediction_dates", Message: "at least one date is required"}
	}
	if len(p.Products) == 0 {
		return &contracts.ValidationError{Field: "products", Message: "at least one product is required"}
	}
	for _, d := range p.PredictionDates {
		if _, ok := dataset.ParseDate(d); !ok {
			return &contracts.ValidationError{Field: "prediction_dates", Message: fmt.Sprintf("invalid date %q", d)}
		}
	}
	for i, prod := range p.Products {
		if prod.Details.ProductName == "" {
			return &contracts.ValidationError{Field: fmt.Sprintf("products[%d].details.product_name", i), Message: "required"}
		}
		for _, s := range prod.HistoricalSales {
			if _, ok := dataset.ParseDate(s.Date); !ok {
				return &contracts.ValidationError{Field: fmt.Sprintf("products[%d].historical_sales", i), Message: fmt.Sprintf("invalid date %q", s.Date)}
			}
		}
	}
	return nil
}

// Dataset flattens the payload: every product's historical sales (quantity
// known) followed by one row per product and prediction date (quantity missing)
func (p *PredictionRequest) Dataset() (*dataset.Dataset, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ds := dataset.New(PredictionColumns...)
	for _, prod := range p.Products {
		if prod.Details.SourceProductID != "" {
			ds.AddColumns(ColSourceProductID)
			break
		}
	}

	row := func(d ProductDetails, date string) *dataset.Record {
		t, _ := dataset.ParseDate(date)
		r := &dataset.Record{
			ProductID:    d.ProductID,
			ProductName:  d.ProductName,
			Category:     d.Category,
			PerItemValue: d.PerItemValue,
			Date:         t,
		}
		if d.InStock > 0 {
			r.InStock = 1
		}
		if d.SourceProductID != "" {
			r.Extra = map[string]string{ColSourceProductID: d.SourceProductID}
		}
		return r
	}

	for _, prod := range p.Products {
		for _, s := range prod.HistoricalSales {
			r := row(prod.Details, s.Date)
			r.Quantity, r.QuantityKnown = s.Quantity, true
			ds.Records = append(ds.Records, r)
		}
	}
	for _, prod := range p.Products {
		for _, d := range p.PredictionDates {
			ds.Records = append(ds.Records, row(prod.Details, d))
		}
	}
	return ds, nil
}
