package repositories

import (
	"fmt"
	"sort"
	"sync"

	"products/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It applies the same validation and key rules as the GORM repository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products ordered by ID.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := product.Validate(); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	if _, ok := r.products[product.ID]; ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicateProduct)
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrProductNotFound)
	}
	if err := product.Validate(); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	r.products[product.ID] = *product
	return nil
}

// ApplyUpdate merges the event into the stored product under the write lock.
func (r *MockProductRepository) ApplyUpdate(event models.ProductUpdateEvent) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[event.ProductID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", event.ProductID, ErrProductNotFound)
	}
	event.Apply(&product)
	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("failed to apply update to product %s: %w", event.ProductID, err)
	}
	r.products[product.ID] = product
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}
