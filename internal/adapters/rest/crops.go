package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/format"
)

type cropView struct {
	ID           int64           `json:"id"`
	Name         string          `json:"crop_name"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	DisplayPrice string          `json:"display_price"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location"`
	Status       string          `json:"status"`
	Seller       string          `json:"seller"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (h *Handler) toCropView(c domain.Crop) cropView {
	return cropView{
		ID:           c.ID,
		Name:         c.Name,
		Category:     c.Category,
		Quantity:     c.Quantity,
		Unit:         c.Unit,
		PricePerUnit: c.PricePerUnit,
		DisplayPrice: format.Currency(h.currency, c.PricePerUnit) + "/" + c.Unit,
		Description:  c.Description,
		Location:     c.Location,
		Status:       string(c.Status),
		Seller:       c.Seller,
		CreatedAt:    c.CreatedAt,
	}
}

// ListCrops handles GET /api/crops?category=&location=
func (h *Handler) ListCrops(c *gin.Context) {
	filter := domain.CropFilter{
		Category: c.Query("category"),
		Location: c.Query("location"),
	}
	crops, err := h.marketplace.Listings(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list crops", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternal, "failed to list crops")
		return
	}
	out := make([]cropView, 0, len(crops))
	for _, crop := range crops {
		out = append(out, h.toCropView(crop))
	}
	c.JSON(http.StatusOK, gin.H{"crops": out})
}

// GetCrop handles GET /api/crops/:id
func (h *Handler) GetCrop(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "crop id must be an integer")
		return
	}
	crop, err := h.marketplace.Listing(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(c, http.StatusNotFound, codeNotFound, "crop not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load crop", zap.Int64("id", id), zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternal, "failed to load crop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"crop": h.toCropView(crop)})
}
