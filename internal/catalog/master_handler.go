package catalog

import (
	"errors"
	"fmt"
	"strings"

	"footwear-backend/internal/audit"
	"footwear-backend/internal/auth"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type CreateNamedRequest struct {
	ParentID uint   `json:"parent_id" form:"parent_id"`
	Name     string `json:"name" form:"name"`
}

type CreateSizesRequest struct {
	SectionID uint     `json:"section_id" form:"section_id"`
	Sizes     []string `json:"sizes" form:"sizes"`
}

type CreateSizesResponse struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// exists reports whether a row with this name (any case) exists under the parent.
func exists(db *gorm.DB, model any, parentCol string, parentID uint, name string) (bool, error) {
	q := db.Model(model).Where("LOWER(name) = LOWER(?)", name)
	if parentCol != "" {
		q = q.Where(parentCol+" = ?", parentID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func parentExists(db *gorm.DB, model any, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var n int64
	err := db.Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func logCreate(db *gorm.DB, c *fiber.Ctx, entity string, id uint, desc string, after any) {
	actor, _ := auth.CurrentActor(c)
	err := audit.WriteLog(db, audit.LogOptions{
		UserID:      actor.ID,
		UserName:    actor.Username,
		EntityType:  entity,
		EntityID:    id,
		Action:      models.AuditActionCreate,
		Description: desc,
		After:       after,
	})
	if err != nil {
		log.Warnw("audit entry not written", "entity", entity, "id", id, "err", err)
	}
}

// createNamed runs the shared duplicate check and insert for brand, category and section.
func createNamed(db *gorm.DB, model any, parentCol string, parentID uint, name string, create func() error) error {
	dup, err := exists(db, model, parentCol, parentID, name)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check for duplicates")
	}
	if dup {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("'%s' already exists", name))
	}
	if err := create(); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("'%s' already exists", name))
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not save")
	}
	return nil
}

// POST /api/master/brands
func CreateBrandHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateNamedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := cleanName(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		brand := models.Brand{Name: name}
		if err := createNamed(db, &models.Brand{}, "", 0, name, func() error { return db.Create(&brand).Error }); err != nil {
			return err
		}
		logCreate(db, c, "brand", brand.ID, "Brand "+brand.Name, brand)

		return c.Status(fiber.StatusCreated).JSON(OptionResponse{ID: brand.ID, Name: brand.Name})
	}
}

// POST /api/master/categories  {parent_id: brand id, name}
func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateNamedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := cleanName(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		ok, err := parentExists(db, &models.Brand{}, body.ParentID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load brand")
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Brand not found")
		}

		cat := models.Category{BrandID: body.ParentID, Name: name}
		if err := createNamed(db, &models.Category{}, "brand_id", body.ParentID, name, func() error { return db.Create(&cat).Error }); err != nil {
			return err
		}
		logCreate(db, c, "category", cat.ID, "Category "+cat.Name, cat)

		return c.Status(fiber.StatusCreated).JSON(OptionResponse{ID: cat.ID, Name: cat.Name})
	}
}

// POST /api/master/sections  {parent_id: category id, name}
func CreateSectionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateNamedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := cleanName(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		ok, err := parentExists(db, &models.Category{}, body.ParentID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load category")
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}

		sec := models.Section{CategoryID: body.ParentID, Name: name}
		if err := createNamed(db, &models.Section{}, "category_id", body.ParentID, name, func() error { return db.Create(&sec).Error }); err != nil {
			return err
		}
		logCreate(db, c, "section", sec.ID, "Section "+sec.Name, sec)

		return c.Status(fiber.StatusCreated).JSON(OptionResponse{ID: sec.ID, Name: sec.Name})
	}
}

// POST /api/master/sizes  {section_id, sizes: ["6","7","Free"]}
// Existing values are reported as skipped, not as an error.
func CreateSizesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSizesRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		ok, err := parentExists(db, &models.Section{}, body.SectionID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load section")
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Section not found")
		}

		res := CreateSizesResponse{Added: []string{}, Skipped: []string{}}
		err = db.Transaction(func(tx *gorm.DB) error {
			seen := make(map[string]bool)
			for _, raw := range body.Sizes {
				v := strings.TrimSpace(raw)
				if v == "" || seen[v] {
					continue
				}
				seen[v] = true

				var found []models.Size
				if err := tx.Where("section_id = ? AND value = ?", body.SectionID, v).Limit(1).Find(&found).Error; err != nil {
					return err
				}
				if len(found) > 0 {
					res.Skipped = append(res.Skipped, v)
					continue
				}
				if err := tx.Create(&models.Size{SectionID: body.SectionID, Value: v}).Error; err != nil {
					return err
				}
				res.Added = append(res.Added, v)
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save sizes")
		}
		if len(res.Added) > 0 {
			logCreate(db, c, "size", body.SectionID, "Sizes "+strings.Join(res.Added, ", "), res)
		}

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
