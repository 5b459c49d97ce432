package catalog

import (
	"strconv"

	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OptionResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SizeResponse struct {
	ID    uint   `json:"id"`
	Value string `json:"value"`
}

// ProductInfoResponse is one pricing record for a hierarchy tuple. A tuple can hold
// several products when the same article was bought at different MRPs.
type ProductInfoResponse struct {
	ProductID       uint            `json:"product_id"`
	ArticleNo       string          `json:"article_no"`
	MRP             decimal.Decimal `json:"mrp"`
	DefaultDiscount decimal.Decimal `json:"default_discount"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	StockQty        int             `json:"stock_qty"`
}

// queryID returns 0 for a missing or malformed id.
func queryID(c *fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// GET /api/catalog/brands
func ListBrandsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var brands []models.Brand
		if err := db.Order("name asc").Find(&brands).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list brands")
		}
		res := make([]OptionResponse, 0, len(brands))
		for _, b := range brands {
			res = append(res, OptionResponse{ID: b.ID, Name: b.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/catalog/categories?brand_id=1
func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := make([]OptionResponse, 0)
		brandID := queryID(c, "brand_id")
		if brandID == 0 {
			return c.JSON(res)
		}

		var rows []models.Category
		if err := db.Where("brand_id = ?", brandID).Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}
		for _, r := range rows {
			res = append(res, OptionResponse{ID: r.ID, Name: r.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/catalog/sections?category_id=1
func ListSectionsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := make([]OptionResponse, 0)
		categoryID := queryID(c, "category_id")
		if categoryID == 0 {
			return c.JSON(res)
		}

		var rows []models.Section
		if err := db.Where("category_id = ?", categoryID).Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sections")
		}
		for _, r := range rows {
			res = append(res, OptionResponse{ID: r.ID, Name: r.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/catalog/sizes?section_id=1
func ListSizesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := make([]SizeResponse, 0)
		sectionID := queryID(c, "section_id")
		if sectionID == 0 {
			return c.JSON(res)
		}

		var rows []models.Size
		if err := db.Where("section_id = ?", sectionID).Order("id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sizes")
		}
		for _, r := range rows {
			res = append(res, SizeResponse{ID: r.ID, Value: r.Value})
		}
		return c.JSON(res)
	}
}

// GET /api/catalog/product-info?brand_id=&category_id=&section_id=&size_id=
func ProductInfoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		brandID, categoryID := queryID(c, "brand_id"), queryID(c, "category_id")
		sectionID, sizeID := queryID(c, "section_id"), queryID(c, "size_id")
		if brandID == 0 || categoryID == 0 || sectionID == 0 || sizeID == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var products []models.Product
		err := db.Preload("Stock").
			Where("brand_id = ? AND category_id = ? AND section_id = ? AND size_id = ?", brandID, categoryID, sectionID, sizeID).
			Order("id asc").
			Find(&products).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load product")
		}
		if len(products) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		res := make([]ProductInfoResponse, 0, len(products))
		for _, p := range products {
			qty := 0
			if p.Stock != nil {
				qty = p.Stock.Quantity
			}
			res = append(res, ProductInfoResponse{
				ProductID:       p.ID,
				ArticleNo:       p.ArticleNo,
				MRP:             p.MRP,
				DefaultDiscount: p.DefaultDiscountPercent,
				GSTPercent:      p.GSTPercent,
				StockQty:        qty,
			})
		}
		return c.JSON(res)
	}
}
