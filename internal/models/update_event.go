package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingProductID = errors.New("product_id is required")
	ErrEmptyUpdate      = errors.New("at least one of price or quantity is required")
)

// ProductUpdateEvent is a partial change to a product's price and/or quantity.
// Nil fields are left untouched when the event is applied.
type ProductUpdateEvent struct {
	ProductID string           `json:"product_id"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  *int32           `json:"quantity,omitempty"`
}

func (e ProductUpdateEvent) Validate() error {
	if strings.TrimSpace(e.ProductID) == "" {
		return ErrMissingProductID
	}
	if e.Price == nil && e.Quantity == nil {
		return ErrEmptyUpdate
	}
	return nil
}

// Apply copies the fields carried by the event onto p.
func (e ProductUpdateEvent) Apply(p *Product) {
	if e.Price != nil {
		p.Price = *e.Price
	}
	if e.Quantity != nil {
		p.Quantity = *e.Quantity
	}
}

// Columns maps the carried fields to their column names, ready for a partial UPDATE.
func (e ProductUpdateEvent) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, 2)
	if e.Price != nil {
		columns["price"] = *e.Price
	}
	if e.Quantity != nil {
		columns["quantity"] = *e.Quantity
	}
	return columns
}
