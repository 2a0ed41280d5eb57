package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"go.uber.org/zap"
)

// Product change event routing keys.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Publisher sends a serialized event under a routing key.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the payload published after a successful write.
type ProductEvent struct {
	Type       string         `json:"type"`
	Product    models.Product `json:"product"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher, m and log may be nil.
func NewProductService(repo repositories.ProductRepository, publisher Publisher, m *metrics.Metrics, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// CreateProduct validates the request and persists a new active product.
func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (product *models.Product, err error) {
	defer s.observe("create", time.Now(), &err)

	if verr := models.Validate(req); verr != nil {
		return nil, &ValidationError{Message: "Missing required fields", Err: verr}
	}

	product = &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		SKU:         req.SKU,
		IsActive:    true,
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}

	if err = s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.publish(EventProductCreated, *product)
	return product, nil
}

// GetActiveProducts retrieves every product with isActive set.
func (s *ProductService) GetActiveProducts(ctx context.Context) (products []models.Product, err error) {
	defer s.observe("list", time.Now(), &err)
	return s.repo.GetAllActive(ctx)
}

// GetProductByID retrieves a single product by its ID, active or not.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (product *models.Product, err error) {
	defer s.observe("get", time.Now(), &err)
	return s.repo.GetByID(ctx, id)
}

// UpdateProduct merges req into the product with the given ID.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (product *models.Product, err error) {
	defer s.observe("update", time.Now(), &err)

	product, err = s.repo.Update(ctx, id, MergePatch(req))
	if err != nil {
		return nil, err
	}
	s.publish(EventProductUpdated, *product)
	return product, nil
}

// DeleteProduct permanently removes a product and returns its last state.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (product *models.Product, err error) {
	defer s.observe("delete", time.Now(), &err)

	product, err = s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(EventProductDeleted, *product)
	return product, nil
}

// SearchProducts returns products whose name, description or category
// contains query. Inactive products are included.
func (s *ProductService) SearchProducts(ctx context.Context, query string) (products []models.Product, err error) {
	defer s.observe("search", time.Now(), &err)

	if query == "" {
		return nil, &ValidationError{Message: "Search query is required"}
	}
	return s.repo.Search(ctx, query)
}

// Ping reports whether the store is reachable.
func (s *ProductService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// MergePatch turns an update request into the fields to write.
// Name, price, category and sku are skipped when empty or zero; description,
// quantity and isActive are written whenever they were sent.
func MergePatch(req models.UpdateProductRequest) repositories.ProductPatch {
	var patch repositories.ProductPatch
	if req.Name != nil && *req.Name != "" {
		patch.Name = req.Name
	}
	if req.Description != nil {
		patch.Description = req.Description
	}
	if req.Price != nil && *req.Price != 0 {
		patch.Price = req.Price
	}
	if req.Quantity != nil {
		patch.Quantity = req.Quantity
	}
	if req.Category != nil && *req.Category != "" {
		patch.Category = req.Category
	}
	if req.SKU != nil && *req.SKU != "" {
		patch.SKU = req.SKU
	}
	if req.IsActive != nil {
		patch.IsActive = req.IsActive
	}
	return patch
}

func (s *ProductService) observe(operation string, start time.Time, err *error) {
	outcome := metrics.OutcomeSuccess
	var validationErr *ValidationError
	switch {
	case *err == nil:
	case errors.As(*err, &validationErr):
		outcome = metrics.OutcomeBadRequest
	case errors.Is(*err, repositories.ErrProductNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.RecordOperation(operation, outcome, time.Since(start))
}

func (s *ProductService) publish(eventType string, product models.Product) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(ProductEvent{Type: eventType, Product: product, OccurredAt: time.Now().UTC()})
	if err != nil {
		s.log.Error("failed to marshal product event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(eventType, body); err != nil {
		s.metrics.RecordEvent(eventType, false)
		s.log.Warn("failed to publish product event",
			zap.String("type", eventType),
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordEvent(eventType, true)
}
