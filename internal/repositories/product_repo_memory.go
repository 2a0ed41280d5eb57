package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"catalog/internal/models"

	"github.com/google/uuid"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// Create adds a new product, assigning an ID when none is set.
func (r *InMemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	if err := models.Validate(product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate ID %s", product.ID)
	}
	now := timestamp()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	r.products[product.ID] = *product
	r.order = append(r.order, product.ID)
	return nil
}

// GetAllActive returns active products in insertion order.
func (r *InMemoryProductRepository) GetAllActive(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, id := range r.order {
		if p := r.products[id]; p.IsActive {
			productList = append(productList, p)
		}
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *InMemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// Update applies patch to an existing product and returns the result.
func (r *InMemoryProductRepository) Update(_ context.Context, id string, patch ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	patch.Apply(&product, timestamp())
	if err := models.Validate(product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	r.products[product.ID] = product
	return &product, nil
}

// Delete removes a product by its ID and returns its last state.
func (r *InMemoryProductRepository) Delete(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &product, nil
}

// Search returns every product whose name, description or category contains
// text, ignoring case. Inactive products are included.
func (r *InMemoryProductRepository) Search(_ context.Context, text string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(text)
	matches := make([]models.Product, 0)
	for _, id := range r.order {
		p := r.products[id]
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Ping always succeeds.
func (r *InMemoryProductRepository) Ping(_ context.Context) error {
	return nil
}
