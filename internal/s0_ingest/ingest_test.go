package s0_ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/pkg/logger"
)

const dailyCSV = `product_id,product_name,category,quantity,per_item_value,in_stock,date
001,Dog Food,Pet Food,3,2.50,1,2024-01-01
001,Dog Food,Pet Food,,2.50,1,2024-01-02
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sales.csv", dailyCSV)

	ds, err := NewFileLoader(logger.Nop()).Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "001", ds.Records[0].ProductID, "ids stay text")
	assert.Equal(t, 3, ds.Records[0].Quantity)
	assert.False(t, ds.Records[1].QuantityKnown)
}

func TestLoadDirectoryCombinesAndSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", dailyCSV)
	writeFile(t, dir, "a.csv", strings.Replace(dailyCSV, "Dog Food", "Cat Food", -1))
	writeFile(t, dir, "empty.csv", "")
	writeFile(t, dir, "header_only.csv", "product_id,date\n")
	writeFile(t, dir, "notes.txt", "ignored")

	ds, err := NewFileLoader(logger.Nop()).Load(dir)
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())
	assert.Equal(t, "Cat Food", ds.Records[0].ProductName, "files are read in name order")
	assert.Equal(t, "Dog Food", ds.Records[2].ProductName)
}

func TestLoadDirectoryWithoutData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.csv", "")

	_, err := NewFileLoader(logger.Nop()).Load(dir)
	assert.ErrorIs(t, err, ErrNoValidFiles)

	writeFile(t, dir, "header_only.csv", "product_id,date\n")
	_, err = NewFileLoader(logger.Nop()).Load(dir)
	assert.ErrorIs(t, err, ErrNoValidFiles)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := NewFileLoader(logger.Nop()).Load(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sales.csv", "")
	_, err := NewFileLoader(logger.Nop()).Load(path)
	assert.ErrorIs(t, err, contracts.ErrEmptyDataset)
}

func TestCombineUnionsColumns(t *testing.T) {
	a := dataset.New("product_id", "date")
	a.Records = append(a.Records, &dataset.Record{ProductID: "a"})
	b := dataset.New("product_id", "quantity")
	b.Records = append(b.Records, &dataset.Record{ProductID: "b"})

	out := Combine(a, b)
	assert.Equal(t, []string{"product_id", "date", "quantity"}, out.Columns)
	assert.Equal(t, 2, out.Len())
}

const predictionJSON = `{
  "prediction_dates": ["2024-02-01", "2024-02-02"],
  "products": [
    {
      "details": {"product_name": "Dog Food", "category": "Pet Food", "per_item_value": 2.5, "in_stock": 1},
      "historical_sales": [{"date": "2024-01-30", "quantity": 4}, {"date": "2024-01-31", "quantity": 6}]
    },
    {
      "details": {"product_name": "Flour", "category": "Homebaking", "per_item_value": 1.2, "in_stock": 0},
      "historical_sales": [{"date": "2024-01-31", "quantity": 1}]
    }
  ]
}`

func TestPredictionDataset(t *testing.T) {
	req, err := DecodePrediction(strings.NewReader(predictionJSON))
	require.NoError(t, err)

	ds, err := req.Dataset()
	require.NoError(t, err)
	require.Equal(t, 7, ds.Len())

	var known, unknown int
	for _, r := range ds.Records {
		if r.QuantityKnown {
			known++
		} else {
			unknown++
		}
	}
	assert.Equal(t, 3, known)
	assert.Equal(t, 4, unknown)

	first := ds.Records[0]
	assert.Equal(t, "Dog Food", first.ProductName)
	assert.Equal(t, 4, first.Quantity)
	assert.Equal(t, 2.5, first.PerItemValue)
	assert.Equal(t, "2024-01-30", first.Date.Format(dataset.DateLayout))

	last := ds.Records[6]
	assert.Equal(t, "Flour", last.ProductName)
	assert.Equal(t, "2024-02-02", last.Date.Format(dataset.DateLayout))
	assert.Equal(t, 0, last.InStock)

	for _, col := range PredictionColumns {
		assert.True(t, ds.Has(col), col)
	}
}

func TestPredictionValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"no dates", `{"prediction_dates": [], "products": [{"details": {"product_name": "x"}}]}`, "prediction_dates"},
		{"bad date", `{"prediction_dates": ["soon"], "products": [{"details": {"product_name": "x"}}]}`, "prediction_dates"},
		{"no products", `{"prediction_dates": ["2024-01-01"], "products": []}`, "products"},
		{"unnamed product", `{"prediction_dates": ["2024-01-01"], "products": [{"details": {}}]}`, "products[0].details.product_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodePrediction(strings.NewReader(tt.body))
			require.NoError(t, err)

			_, err = req.Dataset()
			var ve *contracts.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDecodePredictionRejectsGarbage(t *testing.T) {
	_, err := DecodePrediction(strings.NewReader(`{"prediction_dates": "2024-01-01"`))
	var ve *contracts.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// shape sent by the storefront's prediction job
const storefrontJSON = `{
  "prediction_dates": ["2024-02-01"],
  "products": [
    {
      "details": {"source_product_id": "A", "product_name": "Product A", "category": "cat1", "per_item_value": 1.5, "in_stock": 42},
      "historical_sales": [{"date": "2024-01-31", "quantity": 3}]
    },
    {
      "details": {"source_product_id": "B", "product_name": "Product B", "category": "cat2", "per_item_value": 2.0, "in_stock": 0},
      "historical_sales": []
    }
  ],
  "requested_by": "scheduler"
}`

func TestDecodePredictionStorefrontPayload(t *testing.T) {
	req, err := DecodePrediction(strings.NewReader(storefrontJSON))
	require.NoError(t, err)
	assert.Equal(t, "A", req.Products[0].Details.SourceProductID)

	ds, err := req.Dataset()
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.True(t, ds.Has(ColSourceProductID))

	assert.Equal(t, "A", ds.Records[0].Cell(ColSourceProductID))
	assert.Equal(t, 1, ds.Records[0].InStock, "stock balance is binarised")
	assert.Equal(t, "A", ds.Records[1].Cell(ColSourceProductID))
	assert.Equal(t, "B", ds.Records[2].Cell(ColSourceProductID))
	assert.Equal(t, 0, ds.Records[2].InStock)
}

func TestPredictionDatasetWithoutSourceIDs(t *testing.T) {
	req, err := DecodePrediction(strings.NewReader(predictionJSON))
	require.NoError(t, err)
	ds, err := req.Dataset()
	require.NoError(t, err)
	assert.False(t, ds.Has(ColSourceProductID))
}

func TestProfile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sales.csv", dailyCSV)
	ds, err := NewFileLoader(logger.Nop()).Load(path)
	require.NoError(t, err)

	q := Profile(ds, []string{"quantity", "date", "value"})
	assert.Equal(t, 2, q.Rows)
	assert.Equal(t, 1, q.Products)
	assert.Equal(t, 0.5, q.Coverage["quantity"])
	assert.Equal(t, 1.0, q.Coverage["date"])
	assert.Equal(t, 0.0, q.Coverage["value"])
	assert.Equal(t, []string{"quantity", "value"}, q.Incomplete(1))
	assert.Equal(t, 2, q.Metadata()["rows"])
}
