package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type productEnvelope struct {
	Message string         `json:"message"`
	Product models.Product `json:"product"`
}

type listEnvelope struct {
	Count    int              `json:"count"`
	Products []models.Product `json:"products"`
}

// setupApp sets up a Fiber app for testing backed by in-memory SQLite.
func setupApp(t *testing.T) (*fiber.App, repositories.ProductRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(&models.Product{}), "failed to auto-migrate database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, nil, nil, nil)
	productHandler := handlers.NewProductHandler(productService, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
	productHandler.RegisterRoutes(app.Group("/api"))

	return app, productRepo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decode(t, resp, &body)
	return body["error"]
}

func TestProductLifecycle(t *testing.T) {
	app, _ := setupApp(t)

	// --- POST /api/products ---
	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":     "Widget",
		"price":    9.99,
		"category": "Tools",
		"sku":      "W-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created productEnvelope
	decode(t, resp, &created)
	assert.Equal(t, "Product created successfully", created.Message)
	assert.NotEmpty(t, created.Product.ID)
	assert.Equal(t, "Widget", created.Product.Name)
	assert.Equal(t, 9.99, created.Product.Price)
	assert.Equal(t, 0, created.Product.Quantity)
	assert.True(t, created.Product.IsActive)
	id := created.Product.ID

	// --- GET /api/products/:id ---
	resp = doJSON(t, app, http.MethodGet, "/api/products/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decode(t, resp, &fetched)
	assert.Equal(t, id, fetched.ID)
	assert.Equal(t, created.Product.Name, fetched.Name)
	assert.Equal(t, created.Product.Price, fetched.Price)
	assert.Equal(t, created.Product.Category, fetched.Category)
	assert.Equal(t, created.Product.SKU, fetched.SKU)
	assert.Equal(t, created.Product.IsActive, fetched.IsActive)

	// --- PUT /api/products/:id with a falsy quantity ---
	resp = doJSON(t, app, http.MethodPut, "/api/products/"+id, map[string]interface{}{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated productEnvelope
	decode(t, resp, &updated)
	assert.Equal(t, "Product updated successfully", updated.Message)
	assert.Equal(t, id, updated.Product.ID)
	assert.Equal(t, 0, updated.Product.Quantity)

	// --- DELETE /api/products/:id ---
	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted productEnvelope
	decode(t, resp, &deleted)
	assert.Equal(t, "Product deleted successfully", deleted.Message)
	assert.Equal(t, id, deleted.Product.ID)

	// Verify deletion
	resp = doJSON(t, app, http.MethodGet, "/api/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", errorMessage(t, resp))
}

func TestCreateProduct_MissingFields(t *testing.T) {
	app, _ := setupApp(t)

	bodies := []map[string]interface{}{
		{"price": 1, "category": "c", "sku": "s"},
		{"name": "n", "price": 0, "category": "c", "sku": "s"},
		{"name": "n", "price": 1, "sku": "s"},
		{"name": "n", "price": 1, "category": "c"},
		{},
	}
	for _, body := range bodies {
		resp := doJSON(t, app, http.MethodPost, "/api/products", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required fields", errorMessage(t, resp))
	}

	resp := doJSON(t, app, http.MethodPost, "/api/products", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields", errorMessage(t, resp))

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte(`{"name":`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, resp), "Invalid request body")
}

func TestListProducts_OnlyActive(t *testing.T) {
	app, repo := setupApp(t)
	seedProductsForTest(t, repo)

	resp := doJSON(t, app, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listEnvelope
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Products, 2)
	for _, p := range list.Products {
		assert.True(t, p.IsActive)
	}
}

func TestSearchProducts(t *testing.T) {
	app, repo := setupApp(t)
	seedProductsForTest(t, repo)

	resp := doJSON(t, app, http.MethodGet, "/api/products/search?query=LAPTOP", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listEnvelope
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Count, "search includes inactive products")

	resp = doJSON(t, app, http.MethodGet, "/api/products/search?query=keyboards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = listEnvelope{}
	decode(t, resp, &list)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Products)
	assert.Empty(t, list.Products)

	resp = doJSON(t, app, http.MethodGet, "/api/products/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Search query is required", errorMessage(t, resp))
}

func TestUpdateProduct_MergeRules(t *testing.T) {
	app, repo := setupApp(t)
	products := seedProductsForTest(t, repo)
	id := products[0].ID

	resp := doJSON(t, app, http.MethodPut, "/api/products/"+id, map[string]interface{}{
		"name":        "",
		"price":       0,
		"category":    "",
		"sku":         "",
		"description": "",
		"isActive":    false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated productEnvelope
	decode(t, resp, &updated)
	assert.Equal(t, products[0].Name, updated.Product.Name)
	assert.Equal(t, products[0].Price, updated.Product.Price)
	assert.Equal(t, products[0].Category, updated.Product.Category)
	assert.Equal(t, products[0].SKU, updated.Product.SKU)
	assert.Equal(t, "", updated.Product.Description)
	assert.False(t, updated.Product.IsActive)

	// An empty body leaves the product unchanged.
	resp = doJSON(t, app, http.MethodPut, "/api/products/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Store-level validation failures surface as 500 with the store's message.
	resp = doJSON(t, app, http.MethodPut, "/api/products/"+id, map[string]interface{}{"quantity": -3})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "validation failed: field 'Quantity' failed on the 'gte' tag", errorMessage(t, resp))
}

func TestUpdateProduct_BodyContentType(t *testing.T) {
	app, repo := setupApp(t)
	products := seedProductsForTest(t, repo)
	id := products[1].ID

	put := func(contentType, body string) productEnvelope {
		t.Helper()
		req := httptest.NewRequest(http.MethodPut, "/api/products/"+id, bytes.NewReader([]byte(body)))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated productEnvelope
		decode(t, resp, &updated)
		return updated
	}

	// No Content-Type: the body is read as JSON.
	updated := put("", `{"quantity": 3}`)
	assert.Equal(t, 3, updated.Product.Quantity)

	// Unsupported Content-Type: the body is ignored.
	updated = put("text/plain", `{"quantity": 99}`)
	assert.Equal(t, 3, updated.Product.Quantity)
	assert.Equal(t, products[1].Name, updated.Product.Name)
}

func TestUnknownIDs(t *testing.T) {
	app, _ := setupApp(t)
	missing := uuid.New().String()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body interface{}
		if method == http.MethodPut {
			body = map[string]interface{}{"name": "x"}
		}
		resp := doJSON(t, app, method, "/api/products/"+missing, body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
		assert.Equal(t, "Product not found", errorMessage(t, resp))
	}
}

// seedProductsForTest populates the product repository for tests.
func seedProductsForTest(t *testing.T, repo repositories.ProductRepository) []models.Product {
	t.Helper()
	products := []models.Product{
		{Name: "Test Laptop", Description: "For testing purposes", Price: 1000.00, Quantity: 5, Category: "Computers", SKU: "TL-1", IsActive: true},
		{Name: "Test Monitor", Description: "Another test item", Price: 200.00, Quantity: 10, Category: "Displays", SKU: "TM-1", IsActive: true},
		{Name: "Retired Stand", Description: "Old laptop stand", Price: 20.00, Quantity: 0, Category: "Accessories", SKU: "RS-1", IsActive: false},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for i := range products {
		require.NoError(t, repo.Create(ctx, &products[i]))
	}
	return products
}
