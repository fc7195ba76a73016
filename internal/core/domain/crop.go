package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidCrop is returned for listings that cannot be stored.
var ErrInvalidCrop = errors.New("domain: invalid crop listing")

// CropStatus is the lifecycle state of a marketplace listing.
type CropStatus string

const (
	CropAvailable CropStatus = "available"
	CropPending   CropStatus = "pending"
	CropSold      CropStatus = "sold"
)

// Crop is a marketplace listing put up by a farmer.
type Crop struct {
	ID           int64           `json:"id"`
	Name         string          `json:"crop_name"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location"`
	Status       CropStatus      `json:"status"`
	Seller       string          `json:"seller"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate fills defaults and checks the required fields.
func (c *Crop) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	if c.Name == "" || c.Category == "" {
		return fmt.Errorf("%w: crop name and category are required", ErrInvalidCrop)
	}
	if !c.Quantity.IsPositive() || !c.PricePerUnit.IsPositive() {
		return fmt.Errorf("%w: %s: quantity and price must be positive", ErrInvalidCrop, c.Name)
	}
	if c.Unit == "" {
		c.Unit = "kg"
	}
	switch c.Status {
	case "":
		c.Status = CropAvailable
	case CropAvailable, CropPending, CropSold:
	default:
		return fmt.Errorf("%w: %s: unknown status %q", ErrInvalidCrop, c.Name, c.Status)
	}
	return nil
}

// CropFilter narrows the public listing. Empty fields match everything.
type CropFilter struct {
	Category string
	Location string
}
