package models_test

import (
	"testing"

	"catalog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidate_CreateProductRequest(t *testing.T) {
	valid := models.CreateProductRequest{Name: "Widget", Price: 9.99, Category: "Tools", SKU: "W-1"}
	assert.NoError(t, models.Validate(valid))

	tests := []struct {
		name  string
		input models.CreateProductRequest
		field string
	}{
		{"missing name", models.CreateProductRequest{Price: 1, Category: "c", SKU: "s"}, "Name"},
		{"zero price", models.CreateProductRequest{Name: "n", Price: 0, Category: "c", SKU: "s"}, "Price"},
		{"missing category", models.CreateProductRequest{Name: "n", Price: 1, SKU: "s"}, "Category"},
		{"missing sku", models.CreateProductRequest{Name: "n", Price: 1, Category: "c"}, "SKU"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := models.Validate(tc.input)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidate_Product(t *testing.T) {
	p := models.Product{Name: "Widget", Price: 0, Quantity: 0, Category: "Tools", SKU: "W-1"}
	assert.NoError(t, models.Validate(p), "a stored product may carry a zero price")

	p.Quantity = -1
	err := models.Validate(p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Quantity")

	p.Quantity = 1
	p.Price = -5
	err = models.Validate(p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Price")
}
