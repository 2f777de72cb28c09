package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"products/internal/models"
	"products/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventPublisher delivers serialized product update events to a broker.
type EventPublisher interface {
	Publish(body []byte) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher // nil applies update events inline
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and persists a new product. An empty ID is replaced by a UUID.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := product.Validate(); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct validates and saves an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// SubmitUpdate publishes the event when a broker is configured and reports queued=true.
// Without a broker the event is applied immediately and the updated product is returned.
func (s *ProductService) SubmitUpdate(event models.ProductUpdateEvent) (*models.Product, bool, error) {
	if err := event.Validate(); err != nil {
		return nil, false, err
	}
	if s.publisher == nil {
		product, err := s.ApplyUpdate(event)
		return product, false, err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal update event: %w", err)
	}
	if err := s.publisher.Publish(body); err != nil {
		return nil, false, fmt.Errorf("failed to publish update event for product %s: %w", event.ProductID, err)
	}
	log.Printf("Queued update event for product %s", event.ProductID)
	return nil, true, nil
}

// ApplyUpdate changes only the fields the event carries on the stored product.
func (s *ProductService) ApplyUpdate(event models.ProductUpdateEvent) (*models.Product, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ApplyUpdate(event)
}

// HandleUpdateMessage is the broker consumer entry point. Messages that can never
// succeed are logged and dropped; the returned error asks for redelivery.
func (s *ProductService) HandleUpdateMessage(body []byte) error {
	var event models.ProductUpdateEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Dropping malformed update event %q: %v", body, err)
		return nil
	}

	_, err := s.ApplyUpdate(event)
	if err == nil {
		log.Printf("Applied update event for product %s", event.ProductID)
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.Is(err, repositories.ErrProductNotFound) ||
		errors.Is(err, models.ErrMissingProductID) ||
		errors.Is(err, models.ErrEmptyUpdate) ||
		errors.As(err, &verrs) {
		log.Printf("Dropping update event for product %s: %v", event.ProductID, err)
		return nil
	}
	return fmt.Errorf("failed to apply update event for product %s: %w", event.ProductID, err)
}
