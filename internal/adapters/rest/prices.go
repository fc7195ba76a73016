package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/format"
)

type priceView struct {
	Commodity    string          `json:"commodity"`
	Price        decimal.Decimal `json:"price"`
	DisplayPrice string          `json:"display_price"`
	Unit         string          `json:"unit"`
	Market       string          `json:"market"`
}

// ListPrices handles GET /api/prices
func (h *Handler) ListPrices(c *gin.Context) {
	entries := h.catalog.Prices()
	out := make([]priceView, 0, len(entries))
	for _, e := range entries {
		out = append(out, priceView{
			Commodity:    e.Commodity,
			Price:        e.Price,
			DisplayPrice: format.Currency(h.currency, e.Price),
			Unit:         e.Unit,
			Market:       e.SourceMarket,
		})
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}
