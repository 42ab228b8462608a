package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogBuckets(t *testing.T) {
	cat := Catalog{
		{Name: "order_date", Type: Date},
		{Name: "revenue", Type: Numeric},
		{Name: "region", Type: String},
		{Name: "quantity", Type: Numeric},
		{Name: "returned", Type: Boolean},
		{Name: "product", Type: String},
	}

	b := cat.Buckets()
	assert.Equal(t, []string{"revenue", "quantity"}, b.Numeric)
	assert.Equal(t, []string{"region", "product"}, b.String)
	assert.Equal(t, []string{"order_date"}, b.Date)
	assert.Equal(t, []string{"returned"}, b.Boolean)

	// recomputed on each call, never cached
	cat[1].Type = String
	assert.Equal(t, []string{"quantity"}, cat.Buckets().Numeric)
}

func TestCatalogEmpty(t *testing.T) {
	var cat Catalog
	b := cat.Buckets()
	assert.Empty(t, b.Numeric)
	assert.Empty(t, cat.Names())
	assert.Equal(t, "", First(b.String))
}

func TestLookup(t *testing.T) {
	cat := Catalog{{Name: "revenue", Type: Numeric}}

	col, ok := cat.Lookup("revenue")
	assert.True(t, ok)
	assert.Equal(t, Numeric, col.Type)

	_, ok = cat.Lookup("Revenue")
	assert.False(t, ok)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Revenue", "revenue"},
		{"  Order Date ", "order_date"},
		{"unit_price", "unit_price"},
		{"Sales Rep Name", "sales_rep_name"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}
