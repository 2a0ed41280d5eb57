package handlers

import (
	"encoding/json"
	"errors"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes. /search is registered before
// /:id so it is not captured as an ID.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req models.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return h.respondError(c, "create", "", err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, "create", "", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleGetProducts lists active products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetActiveProducts(c.UserContext())
	if err != nil {
		return h.respondError(c, "list", "", err)
	}
	return c.JSON(fiber.Map{
		"count":    len(products),
		"products": products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := utils.CopyString(c.Params("id"))
	product, err := h.service.GetProductByID(c.UserContext(), productID)
	if err != nil {
		return h.respondError(c, "get", productID, err)
	}
	return c.JSON(product)
}

// HandleUpdateProduct merges the request body into an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := utils.CopyString(c.Params("id"))

	var req models.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return h.respondError(c, "update", productID, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), productID, req)
	if err != nil {
		return h.respondError(c, "update", productID, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct permanently deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := utils.CopyString(c.Params("id"))
	product, err := h.service.DeleteProduct(c.UserContext(), productID)
	if err != nil {
		return h.respondError(c, "delete", productID, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
		"product": product,
	})
}

// HandleSearchProducts searches name, description and category.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("query"))
	if err != nil {
		return h.respondError(c, "search", "", err)
	}
	return c.JSON(fiber.Map{
		"count":    len(products),
		"products": products,
	})
}

// parseBody decodes the request body into dst. An empty body leaves dst
// untouched. A body without Content-Type is read as JSON; a body with an
// unsupported Content-Type is ignored.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}

	var err error
	if len(c.Request().Header.ContentType()) == 0 {
		err = json.Unmarshal(body, dst)
	} else {
		err = c.BodyParser(dst)
		if errors.Is(err, fiber.ErrUnprocessableEntity) {
			return nil
		}
	}
	if err != nil {
		return &services.ValidationError{Message: "Invalid request body: " + err.Error(), Err: err}
	}
	return nil
}

// storeMessage returns the message of the innermost error in err's chain,
// the one reported by the store itself.
func storeMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func (h *ProductHandler) respondError(c *fiber.Ctx, operation, productID string, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	h.log.Error("product operation failed",
		zap.String("operation", operation),
		zap.String("product_id", productID),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": storeMessage(err),
	})
}
