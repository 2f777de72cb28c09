package handlers

import (
	"errors"
	"fmt"
	"log"

	"products/internal/models"
	"products/internal/repositories"
	"products/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes. Reads are public; writes go through auth,
// and update events additionally through eventLimiter.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth, eventLimiter fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
	productRoutes.Post("/:id/events", auth, eventLimiter, h.HandleSubmitUpdate)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return productError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return invalidBody(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return productError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the fields of an existing product. The path ID wins over any ID in the body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return invalidBody(c, err)
	}
	product.ID = c.Params("id")

	if err := h.service.UpdateProduct(&product); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return productError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		return productError(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", productID),
	})
}

// updateEventRequest is the body of POST /products/:id/events.
type updateEventRequest struct {
	Price    *decimal.Decimal `json:"price"`
	Quantity *int32           `json:"quantity"`
}

// HandleSubmitUpdate accepts a partial price/quantity update. It answers 202 when the
// event was handed to the broker and 200 with the product when it was applied directly.
func (h *ProductHandler) HandleSubmitUpdate(c *fiber.Ctx) error {
	var req updateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	event := models.ProductUpdateEvent{ProductID: c.Params("id"), Price: req.Price, Quantity: req.Quantity}
	product, queued, err := h.service.SubmitUpdate(event)
	if err != nil {
		log.Printf("Error submitting update for product %s: %v", event.ProductID, err)
		return productError(c, err, "Could not update product")
	}
	if queued {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": fmt.Sprintf("Update for product %s queued", event.ProductID),
		})
	}
	return c.JSON(product)
}

func invalidBody(c *fiber.Ctx, err error) error {
	log.Printf("Error parsing request body: %v", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// productError maps service errors onto HTTP responses.
func productError(c *fiber.Ctx, err error, fallback string) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return validationFailed(c, verrs)
	case errors.Is(err, models.ErrMissingProductID), errors.Is(err, models.ErrEmptyUpdate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid update event",
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrDuplicateProduct):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Product already exists",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": fallback,
		"error":   err.Error(),
	})
}

func validationFailed(c *fiber.Ctx, verrs validator.ValidationErrors) error {
	errorMessages := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
