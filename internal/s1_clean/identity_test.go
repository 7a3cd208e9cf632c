package s1_clean

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

func TestCanonical(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		in   string
		want string
	}{
		{"CAT & 1 / A * x", "cat_1_a_x"},
		{"Pet Food", "pet_food"},
		{"PetFood", "pet_food"},
		{"Sauces/Pickle", "sauces_pickles"},
		{"Washing Powder", "washing_powders"},
		{"Standard Rate", MiscellaneousCategory},
		{"zero_rate", MiscellaneousCategory},
		{"LOWER-RATE", MiscellaneousCategory},
		{"", MiscellaneousCategory},
		{"Café Crème", "café_crème"},
		{"general_grocery", "general_grocery"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := n.Canonical(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, n.Canonical(got), "canonical form must be a fixed point")
		})
	}
}

func TestCanonicalExtraSynonyms(t *testing.T) {
	n := NewNormalizer(map[string]string{
		"Pet Foods": "petfood",
		"snacks":    "Crisps & Snacks",
	})

	assert.Equal(t, "pet_food", n.Canonical("pet foods"))
	assert.Equal(t, "crisps_snacks", n.Canonical("SNACKS"))
	assert.Equal(t, "crisps_snacks", n.Canonical(n.Canonical("SNACKS")))
}

func TestProductID(t *testing.T) {
	sum := md5.Sum([]byte("Product A_cat1"))
	want := hex.EncodeToString(sum[:])[:8]

	assert.Equal(t, want, ProductID("Product A", "cat1"))
	assert.Equal(t, ProductID("Product A", "cat1"), ProductID("Product A", "cat1"))
	assert.NotEqual(t, ProductID("Product A", "cat1"), ProductID("Product A", "cat2"))
	assert.Len(t, ProductID("", ""), 8)
}

func TestNormalizerApply(t *testing.T) {
	ds := dataset.New(dataset.ColProductID, dataset.ColProductName, dataset.ColCategory)
	ds.Records = []*dataset.Record{
		{ProductID: "SRC-1", ProductName: "Product A", Category: "Pet Food"},
		{ProductID: "SRC-2", ProductName: "Product B", Category: ""},
	}

	out, err := NewNormalizer(nil).Apply(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{dataset.ColOriginalProductID, dataset.ColProductName, dataset.ColCategory, dataset.ColProductID}, out.Columns)
	assert.Equal(t, "SRC-1", out.Records[0].OriginalProductID)
	assert.Equal(t, "pet_food", out.Records[0].Category)
	assert.Equal(t, ProductID("Product A", "pet_food"), out.Records[0].ProductID)
	assert.Equal(t, MiscellaneousCategory, out.Records[1].Category)

	// input untouched
	assert.Equal(t, "SRC-1", ds.Records[0].ProductID)
	assert.Equal(t, "Pet Food", ds.Records[0].Category)
}

func TestNormalizerApplyMissingColumns(t *testing.T) {
	_, err := NewNormalizer(nil).Apply(dataset.New(dataset.ColProductID))

	var se *contracts.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{dataset.ColProductName, dataset.ColCategory}, se.Missing)
}
