package ledger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func queryUint(c *fiber.Ctx, key string) uint {
	v := c.QueryInt(key, 0)
	if v < 0 {
		return 0
	}
	return uint(v)
}

// GET /api/ledger?brand_id=&category_id=&section_id=&size_id=&supplier_id=
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			BrandID:    queryUint(c, "brand_id"),
			CategoryID: queryUint(c, "category_id"),
			SectionID:  queryUint(c, "section_id"),
			SizeID:     queryUint(c, "size_id"),
			SupplierID: queryUint(c, "supplier_id"),
		}

		report, err := Build(c.UserContext(), db, f)
		if err != nil {
			log.Errorw("ledger query failed", "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load ledger")
		}
		return c.JSON(report)
	}
}
