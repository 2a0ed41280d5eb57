package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"catalog/internal/models"
)

func TestOpenGORM_SQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := OpenGORM("sqlite", dsn, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Product{}))
	assert.True(t, db.Migrator().HasColumn(&models.Product{}, "sku"))
	assert.True(t, db.Migrator().HasColumn(&models.Product{}, "is_active"))

	require.NoError(t, CloseGORM(context.Background(), db))
}

func TestOpenGORM_UnsupportedDriver(t *testing.T) {
	_, err := OpenGORM("oracle", "whatever", nil)
	assert.EqualError(t, err, `unsupported SQL driver "oracle"`)
}
