package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductTableName is the storage table backing Product.
const ProductTableName = "products"

// Column limits of the products table.
const (
	ProductIDMaxLength   = 36 // fits a textual UUID
	ProductNameMaxLength = 100
	PriceMaxDigits       = 10
	PriceDecimalPlaces   = 2
)

// Product represents one row of the products table.
type Product struct {
	ID       string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"required,max=36"`
	Name     string          `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Quantity int32           `json:"quantity" gorm:"not null"`
	Price    decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null" validate:"decimal=10:2"`
}

// TableName binds Product to the products table.
func (Product) TableName() string {
	return ProductTableName
}

// Validate checks the product against the column limits.
func (p *Product) Validate() error {
	return validate.Struct(p)
}

// BeforeSave rejects rows that would violate the column limits, on create and on update.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}
