package repositories

import (
	"context"
	"errors"
	"time"

	"catalog/internal/models"
)

// ErrProductNotFound is returned (wrapped) when no product has the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
// Each method maps onto exactly one store operation.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetAllActive(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, text string) ([]models.Product, error)
	Ping(ctx context.Context) error
}

// ProductPatch holds the fields an update writes. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64 `validate:"omitempty,gte=0"`
	Quantity    *int     `validate:"omitempty,gte=0"`
	Category    *string
	SKU         *string
	IsActive    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Quantity == nil &&
		p.Category == nil && p.SKU == nil && p.IsActive == nil
}

// Apply writes the patch onto product in place.
func (p ProductPatch) Apply(product *models.Product, now time.Time) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Quantity != nil {
		product.Quantity = *p.Quantity
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.SKU != nil {
		product.SKU = *p.SKU
	}
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
	product.UpdatedAt = now
}

// Columns returns the patch as a column/value map for SQL updates.
func (p ProductPatch) Columns(now time.Time) map[string]interface{} {
	columns := map[string]interface{}{"updated_at": now}
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Description != nil {
		columns["description"] = *p.Description
	}
	if p.Price != nil {
		columns["price"] = *p.Price
	}
	if p.Quantity != nil {
		columns["quantity"] = *p.Quantity
	}
	if p.Category != nil {
		columns["category"] = *p.Category
	}
	if p.SKU != nil {
		columns["sku"] = *p.SKU
	}
	if p.IsActive != nil {
		columns["is_active"] = *p.IsActive
	}
	return columns
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
