package repositories

import (
	"errors"

	"products/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product already exists")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	// ApplyUpdate writes only the fields the event carries and returns the stored product.
	ApplyUpdate(event models.ProductUpdateEvent) (*models.Product, error)
	Delete(id string) error
}
