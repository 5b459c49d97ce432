package purchase

import (
	"strings"

	"footwear-backend/internal/audit"
	"footwear-backend/internal/auth"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name    string `json:"name" form:"name"`
	Mobile  string `json:"mobile" form:"mobile"`
	Address string `json:"address" form:"address"`
}

type SupplierResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

func toSupplierResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{ID: s.ID, Name: s.Name, Mobile: s.Mobile, Address: s.Address}
}

// POST /api/suppliers
func CreateSupplierHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier name is required")
		}

		s := models.Supplier{
			Name:    body.Name,
			Mobile:  strings.TrimSpace(body.Mobile),
			Address: strings.TrimSpace(body.Address),
		}
		if err := db.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save supplier")
		}

		actor, _ := auth.CurrentActor(c)
		if err := audit.WriteLog(db, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Username,
			EntityType:  "supplier",
			EntityID:    s.ID,
			Action:      models.AuditActionCreate,
			Description: "Supplier " + s.Name,
			After:       toSupplierResponse(s),
		}); err != nil {
			log.Warnw("audit entry not written", "supplier_id", s.ID, "err", err)
		}

		return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(s))
	}
}

// GET /api/suppliers
func ListSuppliersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := db.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}
		res := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			res = append(res, toSupplierResponse(s))
		}
		return c.JSON(res)
	}
}
