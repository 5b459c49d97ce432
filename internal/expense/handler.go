// Package expense records shop running costs. Daily expense totals feed the end-of-day
// sales summary.
package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"footwear-backend/internal/audit"
	"footwear-backend/internal/auth"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type CategoryResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" form:"name"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type CreateExpenseRequest struct {
	Date        string          `json:"date" form:"date"` // "2026-03-09", default today
	CategoryID  uint            `json:"category_id" form:"category_id"`
	Amount      decimal.Decimal `json:"amount" form:"amount"`
	PaymentMode string          `json:"payment_mode" form:"payment_mode"`
	Notes       string          `json:"notes" form:"notes"`
}

type ExpenseResponse struct {
	ID          uint            `json:"id"`
	CategoryID  uint            `json:"category_id"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode"`
	Notes       string          `json:"notes"`
}

type MonthlySummaryItem struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
}

type MonthlySummaryResponse struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Items      []MonthlySummaryItem `json:"items"`
	GrandTotal decimal.Decimal      `json:"grand_total"`
}

func toCategoryResponse(c models.ExpenseCategory) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, IsActive: c.IsActive}
}

func toExpenseResponse(e models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		Category:    e.Category.Name,
		Date:        e.ExpenseDate.Format(dateLayout),
		Amount:      e.Amount,
		PaymentMode: string(e.PaymentMode),
		Notes:       e.Notes,
	}
}

func validPaymentMode(m models.ExpensePaymentMode) bool {
	switch m {
	case models.ExpensePaidCash, models.ExpensePaidBank, models.ExpensePaidUPI:
		return true
	}
	return false
}

func logChange(c *fiber.Ctx, db *gorm.DB, action models.AuditAction, entity string, id uint, description string, after any) {
	actor, _ := auth.CurrentActor(c)
	if err := audit.WriteLog(db, audit.LogOptions{
		UserID:      actor.ID,
		UserName:    actor.Username,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: description,
		After:       after,
	}); err != nil {
		log.Warnw("audit log not written", "entity", entity, "id", id, "err", err)
	}
}

// GET /api/expense-categories?active=1
func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext()).Order("name asc")
		if c.QueryBool("active") {
			q = q.Where("is_active = ?", true)
		}

		var cats []models.ExpenseCategory
		if err := q.Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expense categories")
		}

		res := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, toCategoryResponse(cat))
		}
		return c.JSON(res)
	}
}

// POST /api/expense-categories
func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		var n int64
		err := db.Model(&models.ExpenseCategory{}).Where("LOWER(name) = LOWER(?)", body.Name).Count(&n).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save expense category")
		}
		if n > 0 {
			return fiber.NewError(fiber.StatusConflict, "Expense category already exists")
		}

		cat := models.ExpenseCategory{Name: body.Name, IsActive: true}
		if err := db.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save expense category")
		}

		logChange(c, db, models.AuditActionCreate, "expense_category", cat.ID, "Expense category "+cat.Name, toCategoryResponse(cat))
		return c.Status(fiber.StatusCreated).JSON(toCategoryResponse(cat))
	}
}

// PUT /api/expense-categories/:id renames or (de)activates a category. Categories are
// never deleted because expenses reference them.
func UpdateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid category id")
		}

		var cat models.ExpenseCategory
		err = db.First(&cat, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Expense category not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load expense category")
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name must not be empty")
			}
			cat.Name = name
		}
		if body.IsActive != nil {
			cat.IsActive = *body.IsActive
		}

		if err := db.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update expense category")
		}

		res := toCategoryResponse(cat)
		logChange(c, db, models.AuditActionUpdate, "expense_category", cat.ID, "Expense category "+cat.Name+" updated", res)
		return c.JSON(res)
	}
}

// POST /api/expenses
func CreateExpenseHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.CategoryID == 0 || !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "category_id and a positive amount are required")
		}

		mode := models.ExpensePaymentMode(strings.ToUpper(strings.TrimSpace(body.PaymentMode)))
		if mode == "" {
			mode = models.ExpensePaidCash
		}
		if !validPaymentMode(mode) {
			return fiber.NewError(fiber.StatusBadRequest, "payment_mode must be CASH, BANK or UPI")
		}

		y, m, d := time.Now().Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		if body.Date != "" {
			parsed, err := time.ParseInLocation(dateLayout, body.Date, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			date = parsed
		}

		var cat models.ExpenseCategory
		if err := db.First(&cat, body.CategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Expense category not found")
		}
		if !cat.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Expense category is inactive")
		}

		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		exp := models.Expense{
			CategoryID:  cat.ID,
			Category:    cat,
			Amount:      body.Amount.Round(2),
			ExpenseDate: date,
			PaymentMode: mode,
			Notes:       strings.TrimSpace(body.Notes),
			CreatedByID: actor.ID,
		}
		if err := db.Omit("Category", "CreatedBy").Create(&exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save expense")
		}

		res := toExpenseResponse(exp)
		logChange(c, db, models.AuditActionCreate, "expense", exp.ID, fmt.Sprintf("Expense %s Rs.%s", cat.Name, exp.Amount.StringFixed(2)), res)
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/expenses?from=YYYY-MM-DD&to=YYYY-MM-DD&category_id=
func ListExpensesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext()).Model(&models.Expense{}).Preload("Category")

		if s := c.Query("from"); s != "" {
			from, err := time.ParseInLocation(dateLayout, s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
			}
			q = q.Where("expense_date >= ?", from)
		}
		if s := c.Query("to"); s != "" {
			to, err := time.ParseInLocation(dateLayout, s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
			}
			q = q.Where("expense_date < ?", to.AddDate(0, 0, 1))
		}
		if cid := c.QueryInt("category_id"); cid > 0 {
			q = q.Where("category_id = ?", cid)
		}

		var rows []models.Expense
		if err := q.Order("expense_date asc, id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
		}

		res := make([]ExpenseResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, toExpenseResponse(r))
		}
		return c.JSON(res)
	}
}

// GET /api/expenses/summary/monthly?year=2026&month=3
func MonthlySummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year")
		month := c.QueryInt("month")
		if year < 2000 || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year and month (1-12) are required")
		}

		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)

		var rows []struct {
			CategoryID   uint
			CategoryName string
			Total        decimal.Decimal
		}
		err := db.WithContext(c.UserContext()).Model(&models.Expense{}).
			Select("expenses.category_id, expense_categories.name AS category_name, COALESCE(SUM(expenses.amount), 0) AS total").
			Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
			Where("expenses.expense_date >= ? AND expenses.expense_date < ?", first, first.AddDate(0, 1, 0)).
			Group("expenses.category_id, expense_categories.name").
			Order("expense_categories.name").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute expense summary")
		}

		res := MonthlySummaryResponse{Year: year, Month: month, Items: make([]MonthlySummaryItem, 0, len(rows))}
		for _, r := range rows {
			res.Items = append(res.Items, MonthlySummaryItem{CategoryID: r.CategoryID, CategoryName: r.CategoryName, Total: r.Total.Round(2)})
			res.GrandTotal = res.GrandTotal.Add(r.Total)
		}
		res.GrandTotal = res.GrandTotal.Round(2)
		return c.JSON(res)
	}
}
