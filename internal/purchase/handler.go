package purchase

import (
	"encoding/json"
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

type purchaseItemBody struct {
	BrandID         uint            `json:"brand_id"`
	CategoryID      uint            `json:"category_id"`
	SectionID       uint            `json:"section_id"`
	SizeID          uint            `json:"size_id"`
	ArticleNo       string          `json:"article_no"`
	Qty             int             `json:"qty"`
	MRP             decimal.Decimal `json:"mrp"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountRs      decimal.Decimal `json:"discount_rs"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	MSP             decimal.Decimal `json:"msp"`
}

type CreatePurchaseRequest struct {
	SupplierID  uint               `json:"supplier_id" form:"supplier_id"`
	BillNumber  string             `json:"bill_number" form:"bill_number"`
	BillDate    string             `json:"bill_date" form:"bill_date"` // "2026-03-01"
	PaymentMode string             `json:"payment_mode" form:"payment_mode"`
	Items       []purchaseItemBody `json:"items" form:"-"`
	ItemsJSON   string             `json:"items_json" form:"items_json"`
}

type PurchaseResponse struct {
	ID           uint            `json:"id"`
	SupplierID   uint            `json:"supplier_id"`
	BillNumber   string          `json:"bill_number"`
	BillDate     string          `json:"bill_date"`
	PaymentMode  string          `json:"payment_mode"`
	TotalQty     int             `json:"total_qty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalGST     decimal.Decimal `json:"total_gst"`
	CashPaid     decimal.Decimal `json:"cash_paid"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

// PartyWiseRow is one purchased line in the party-wise purchase report.
type PartyWiseRow struct {
	BillDate     string          `json:"bill_date"`
	BillNumber   string          `json:"bill_number"`
	Supplier     string          `json:"supplier"`
	Brand        string          `json:"brand"`
	Category     string          `json:"category"`
	Section      string          `json:"section"`
	Size         string          `json:"size"`
	Quantity     int             `json:"quantity"`
	MRP          decimal.Decimal `json:"mrp"`
	BillingPrice decimal.Decimal `json:"billing_price"`
	GSTAmount    decimal.Decimal `json:"gst_amount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

func (b *CreatePurchaseRequest) toRequest(actorID uint) (Request, error) {
	items := b.Items
	if len(items) == 0 && strings.TrimSpace(b.ItemsJSON) != "" {
		if err := json.Unmarshal([]byte(b.ItemsJSON), &items); err != nil {
			return Request{}, invalidf("items_json is not valid JSON")
		}
	}

	var billDate time.Time
	if strings.TrimSpace(b.BillDate) != "" {
		d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(b.BillDate), time.Local)
		if err != nil {
			return Request{}, invalidf("bill_date must be YYYY-MM-DD")
		}
		billDate = d
	}

	req := Request{
		ActorID:     actorID,
		SupplierID:  b.SupplierID,
		BillNumber:  b.BillNumber,
		BillDate:    billDate,
		PaymentMode: models.PaymentMode(strings.ToUpper(strings.TrimSpace(b.PaymentMode))),
		Items:       make([]ItemInput, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, ItemInput{
			BrandID:         it.BrandID,
			CategoryID:      it.CategoryID,
			SectionID:       it.SectionID,
			SizeID:          it.SizeID,
			ArticleNo:       it.ArticleNo,
			Quantity:        it.Qty,
			MRP:             it.MRP,
			BillingPrice:    it.Price,
			DiscountPercent: it.DiscountPercent,
			DiscountAmount:  it.DiscountRs,
			GSTPercent:      it.GSTPercent,
			MSP:             it.MSP,
		})
	}
	return req, nil
}

// toHTTPError maps service errors onto fiber errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSupplierNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
	case errors.Is(err, ErrDuplicateBill):
		return fiber.NewError(fiber.StatusConflict, "This bill number is already recorded for the supplier")
	default:
		log.Errorw("purchase rolled back", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not save purchase")
	}
}

// POST /api/purchases
func CreatePurchaseHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		req, err := body.toRequest(actor.ID)
		if err != nil {
			return toHTTPError(err)
		}

		bill, err := svc.Record(c.UserContext(), req)
		if err != nil {
			return toHTTPError(err)
		}

		err = audit.WriteLog(svc.db.WithContext(c.UserContext()), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Username,
			EntityType:  "purchase_bill",
			EntityID:    bill.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase %s, %d pcs, Rs.%s", bill.BillNumber, bill.TotalQty, bill.TotalAmount.StringFixed(2)),
			After:       bill,
		})
		if err != nil {
			log.Warnw("purchase saved without audit entry", "purchase_id", bill.ID, "err", err)
		}

		return c.Status(fiber.StatusCreated).JSON(PurchaseResponse{
			ID:           bill.ID,
			SupplierID:   bill.SupplierID,
			BillNumber:   bill.BillNumber,
			BillDate:     bill.BillDate.Format(dateLayout),
			PaymentMode:  string(bill.PaymentMode),
			TotalQty:     bill.TotalQty,
			TotalAmount:  bill.TotalAmount,
			TotalGST:     bill.TotalGST,
			CashPaid:     bill.CashPaid,
			CreditAmount: bill.CreditAmount,
		})
	}
}

// GET /api/purchases/check-bill?supplier_id=1&bill_number=INV-7
func CheckBillHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplierID := uint(c.QueryInt("supplier_id", 0))
		exists, err := svc.BillExists(c.UserContext(), supplierID, c.Query("bill_number"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check bill")
		}
		return c.JSON(fiber.Map{"exists": exists})
	}
}

// GET /api/purchases?supplier_id=1&start_date=2026-03-01&end_date=2026-03-31
func ListPartyWiseHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.Model(&models.PurchaseItem{}).
			Select("purchase_items.*").
			Joins("JOIN purchase_bills ON purchase_bills.id = purchase_items.purchase_bill_id").
			Preload("Product.Brand").Preload("Product.Category").Preload("Product.Section").Preload("Product.Size")

		if sid := c.QueryInt("supplier_id", 0); sid > 0 {
			q = q.Where("purchase_bills.supplier_id = ?", sid)
		}
		if s := c.Query("start_date"); s != "" {
			d, err := time.ParseInLocation(dateLayout, s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			q = q.Where("purchase_bills.bill_date >= ?", d)
		}
		if s := c.Query("end_date"); s != "" {
			d, err := time.ParseInLocation(dateLayout, s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
			q = q.Where("purchase_bills.bill_date < ?", d.AddDate(0, 0, 1))
		}

		var items []models.PurchaseItem
		if err := q.Order("purchase_bills.bill_date DESC, purchase_items.id ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchases")
		}

		bills, err := loadBills(db, items)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchases")
		}

		rows := make([]PartyWiseRow, 0, len(items))
		for _, it := range items {
			b := bills[it.PurchaseBillID]
			rows = append(rows, PartyWiseRow{
				BillDate:     b.BillDate.Format(dateLayout),
				BillNumber:   b.BillNumber,
				Supplier:     b.Supplier.Name,
				Brand:        it.Product.Brand.Name,
				Category:     it.Product.Category.Name,
				Section:      it.Product.Section.Name,
				Size:         it.Product.Size.Value,
				Quantity:     it.Quantity,
				MRP:          it.MRP,
				BillingPrice: it.BillingPrice,
				GSTAmount:    it.GSTAmount,
				LineTotal:    it.LineTotal,
			})
		}
		return c.JSON(rows)
	}
}

func loadBills(db *gorm.DB, items []models.PurchaseItem) (map[uint]models.PurchaseBill, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.PurchaseBillID)
	}
	out := make(map[uint]models.PurchaseBill, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var bills []models.PurchaseBill
	if err := db.Preload("Supplier").Where("id IN ?", ids).Find(&bills).Error; err != nil {
		return nil, err
	}
	for _, b := range bills {
		out[b.ID] = b
	}
	return out, nil
}
