package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"status": 200,
	"data": {
		"first_group": [
			{
				"name": "Cloud,Elastic servers",
				"group": [
					{
						"name": "US^United States,Low latency,🇺🇸",
						"tagline": "<b>CN2</b>",
						"products": [
							{"id": 7, "name": "Starter", "product_price": "9.90", "description": "&lt;p&gt;1 vCPU&lt;/p&gt;"},
							{"id": 8, "name": "Pro", "product_price": 29.5, "description": ""}
						]
					}
				]
			}
		]
	}
}`

func TestCatalogResponseUnmarshal(t *testing.T) {
	var resp CatalogResponse
	require.NoError(t, json.Unmarshal([]byte(sampleResponse), &resp))

	require.Equal(t, 200, resp.Status)
	require.True(t, resp.Data.HasFirstGroups())

	region := resp.Data.FirstGroups[0].Groups[0]
	require.Equal(t, "<b>CN2</b>", region.Tagline)
	require.Len(t, region.Products, 2)
	require.Equal(t, Price("9.90"), region.Products[0].Price)
	require.Equal(t, "29.5", region.Products[1].Price.String())
}

func TestPriceNull(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"product_price":null}`), &p))
	require.Empty(t, p.Price)
}

func TestCatalogProductByID(t *testing.T) {
	var resp CatalogResponse
	require.NoError(t, json.Unmarshal([]byte(sampleResponse), &resp))

	product, ok := resp.Data.ProductByID(8)
	require.True(t, ok)
	require.Equal(t, "Pro", product.Name)

	_, ok = resp.Data.ProductByID(99)
	require.False(t, ok)

	var nilCatalog *Catalog
	_, ok = nilCatalog.ProductByID(8)
	require.False(t, ok)
	require.False(t, nilCatalog.HasFirstGroups())
}

func TestBannerMessage(t *testing.T) {
	require.Empty(t, BannerMessage(nil))
	require.Equal(t, "maintenance", BannerMessage(NewLoadError("maintenance", nil)))
	require.Equal(t, DefaultLoadMessage, BannerMessage(NewLoadError("", errors.New("boom"))))
	require.Equal(t, DefaultLoadMessage, BannerMessage(errors.New("boom")))

	err := NewLoadError("", errors.New("boom"))
	require.ErrorContains(t, err, "boom")
}
