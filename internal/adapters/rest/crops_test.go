package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/services"
)

func newMarketplaceHandler(t *testing.T) *Handler {
	t.Helper()
	env := newTestEnv(t, nil)

	m := services.NewMarketplace(env.store)
	require.NoError(t, m.Seed(context.Background(), []domain.Crop{
		{Name: "Basmati Rice", Category: "cereal", Quantity: decimal.NewFromInt(500), PricePerUnit: decimal.RequireFromString("62.50"), Location: "Karnal", Seller: "Ramesh"},
		{Name: "Turmeric", Category: "spice", Quantity: decimal.NewFromInt(120), PricePerUnit: decimal.NewFromInt(140), Location: "Erode", Seller: "Lakshmi"},
		{Name: "Onion", Category: "vegetable", Quantity: decimal.NewFromInt(300), PricePerUnit: decimal.NewFromInt(18), Location: "Nashik", Status: domain.CropSold, Seller: "Sunil"},
	}))
	return NewHandler(nil, nil, nil, WithMarketplace(m))
}

type cropsBody struct {
	Crops []struct {
		ID           int64  `json:"id"`
		Name         string `json:"crop_name"`
		PricePerUnit string `json:"price_per_unit"`
		DisplayPrice string `json:"display_price"`
		Status       string `json:"status"`
	} `json:"crops"`
}

func TestListCrops(t *testing.T) {
	h := newMarketplaceHandler(t)

	tests := []struct {
		name  string
		path  string
		names []string
	}{
		{name: "Available only", path: "/api/crops", names: []string{"Basmati Rice", "Turmeric"}},
		{name: "Category filter", path: "/api/crops?category=Spice", names: []string{"Turmeric"}},
		{name: "Location filter", path: "/api/crops?location=Karnal", names: []string{"Basmati Rice"}},
		{name: "No match", path: "/api/crops?category=vegetable", names: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rr.Code)

			var out cropsBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
			names := []string{}
			for _, c := range out.Crops {
				assert.Equal(t, "available", c.Status)
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestGetCrop(t *testing.T) {
	h := newMarketplaceHandler(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "Found", path: "/api/crops/1", wantStatus: http.StatusOK},
		{name: "Sold listing is still readable", path: "/api/crops/3", wantStatus: http.StatusOK},
		{name: "Missing", path: "/api/crops/99", wantStatus: http.StatusNotFound, wantCode: codeNotFound},
		{name: "Zero id", path: "/api/crops/0", wantStatus: http.StatusNotFound, wantCode: codeNotFound},
		{name: "Non-numeric id", path: "/api/crops/rice", wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode(t, rr)["code"])
			}
		})
	}

	rr := doJSON(t, h, http.MethodGet, "/api/crops/1", "")
	var out struct {
		Crop struct {
			Name         string `json:"crop_name"`
			PricePerUnit string `json:"price_per_unit"`
			DisplayPrice string `json:"display_price"`
			Unit         string `json:"unit"`
			Seller       string `json:"seller"`
		} `json:"crop"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Basmati Rice", out.Crop.Name)
	assert.Equal(t, "62.5", out.Crop.PricePerUnit)
	assert.Equal(t, "₹62.50/kg", out.Crop.DisplayPrice)
	assert.Equal(t, "kg", out.Crop.Unit)
	assert.Equal(t, "Ramesh", out.Crop.Seller)
}

func TestCropRoutesDisabledWithoutMarketplace(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := doJSON(t, env.handler, http.MethodGet, "/api/crops", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
