package models

import "time"

// Product represents a catalog entry.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" gorm:"not null" validate:"gte=0"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	Category    string    `json:"category" gorm:"type:varchar(255);index;not null" validate:"required"`
	SKU         string    `json:"sku" gorm:"column:sku;type:varchar(100);index;not null" validate:"required"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProductRequest is the body accepted by the create endpoint.
// The required tags reject zero values, so a price of 0 counts as missing.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required"`
	Quantity    *int    `json:"quantity"`
	Category    string  `json:"category" validate:"required"`
	SKU         string  `json:"sku" validate:"required"`
}

// UpdateProductRequest carries a partial update. A nil field was not sent.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Category    *string  `json:"category"`
	SKU         *string  `json:"sku"`
	IsActive    *bool    `json:"isActive"`
}
