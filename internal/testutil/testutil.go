// Package testutil builds throwaway SQLite databases with the production schema.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"footwear-backend/internal/auth"
	"footwear-backend/internal/database"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a file-backed SQLite database. BEGIN IMMEDIATE makes every transaction
// take the write lock up front, so concurrent checkouts serialize the way row locks
// serialize them on Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=20000&_journal_mode=WAL&_foreign_keys=1", path)

	db, err := database.Open(sqlite.Open(dsn), false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{Name: username, Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Hierarchy is one brand/category/section/size chain.
type Hierarchy struct {
	Brand    models.Brand
	Category models.Category
	Section  models.Section
	Size     models.Size
}

func CreateHierarchy(t *testing.T, db *gorm.DB, brand, category, section, size string) Hierarchy {
	t.Helper()
	var h Hierarchy

	h.Brand = models.Brand{Name: brand}
	require.NoError(t, db.Where(models.Brand{Name: brand}).FirstOrCreate(&h.Brand).Error)

	h.Category = models.Category{BrandID: h.Brand.ID, Name: category}
	require.NoError(t, db.Where(models.Category{BrandID: h.Brand.ID, Name: category}).FirstOrCreate(&h.Category).Error)

	h.Section = models.Section{CategoryID: h.Category.ID, Name: section}
	require.NoError(t, db.Where(models.Section{CategoryID: h.Category.ID, Name: section}).FirstOrCreate(&h.Section).Error)

	h.Size = models.Size{SectionID: h.Section.ID, Value: size}
	require.NoError(t, db.Where(models.Size{SectionID: h.Section.ID, Value: size}).FirstOrCreate(&h.Size).Error)

	return h
}

// CreateProduct creates a product with a stock row holding qty.
func CreateProduct(t *testing.T, db *gorm.DB, h Hierarchy, mrp, gst string, qty int) models.Product {
	t.Helper()
	p := models.Product{
		BrandID:                h.Brand.ID,
		CategoryID:             h.Category.ID,
		SectionID:              h.Section.ID,
		SizeID:                 h.Size.ID,
		MRP:                    decimal.RequireFromString(mrp),
		DefaultDiscountPercent: decimal.NewFromInt(10),
		GSTPercent:             decimal.RequireFromString(gst),
	}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&models.Stock{ProductID: p.ID, Quantity: qty}).Error)
	return p
}

func StockOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var s models.Stock
	require.NoError(t, db.Where("product_id = ?", productID).First(&s).Error)
	return s.Quantity
}

func Count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// AsActor stands in for JWTMiddleware in handler tests.
func AsActor(u models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, u.ID)
		c.Locals(auth.CtxUserRoleKey, u.Role)
		c.Locals(auth.CtxUsernameKey, u.Username)
		return c.Next()
	}
}

// JSONRequest builds a request for app.Test. body may be nil.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Decode reads a JSON response body into out and returns the status code.
func Decode(t *testing.T, resp *http.Response, out any) int {
	t.Helper()
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
