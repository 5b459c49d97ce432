package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"footwear-backend/internal/audit"
	"footwear-backend/internal/auth"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
)

// checkoutBody accepts a JSON body or a form post. Form posts carry the cart as an
// items_json string.
type checkoutBody struct {
	PaymentMode   string        `json:"payment_mode" form:"payment_mode"`
	PaymentType   string        `json:"payment_type" form:"payment_type"`
	CustomerName  string        `json:"customer_name" form:"customer_name"`
	CustomerPhone string        `json:"customer_phone" form:"customer_phone"`
	CustomerMob   string        `json:"customer_mobile" form:"customer_mobile"`
	Items         []itemPayload `json:"items" form:"-"`
	ItemsJSON     string        `json:"items_json" form:"items_json"`
}

// itemPayload takes both the long and the short key names used by the billing screen.
type itemPayload struct {
	ProductID  uint             `json:"product_id"`
	Quantity   int              `json:"quantity"`
	Qty        int              `json:"qty"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	Price      *decimal.Decimal `json:"price"`
	GSTPercent *decimal.Decimal `json:"gst_percent"`
	GST        *decimal.Decimal `json:"gst"`
}

func (b *checkoutBody) request(actorID uint) (Request, error) {
	items := b.Items
	if len(items) == 0 && strings.TrimSpace(b.ItemsJSON) != "" {
		if err := json.Unmarshal([]byte(b.ItemsJSON), &items); err != nil {
			return Request{}, validationf(0, "Invalid items_json.")
		}
	}

	req := Request{
		ActorID:     actorID,
		PaymentMode: models.PaymentMode(strings.ToUpper(strings.TrimSpace(firstNonEmpty(b.PaymentMode, b.PaymentType)))),
		Customer: &CustomerInput{
			Name:  b.CustomerName,
			Phone: firstNonEmpty(b.CustomerPhone, b.CustomerMob),
		},
		Items: make([]Item, 0, len(items)),
	}

	for i, it := range items {
		price := it.UnitPrice
		if price == nil {
			price = it.Price
		}
		if price == nil {
			return Request{}, validationf(i+1, "Invalid data for item #%d.", i+1)
		}
		qty := it.Quantity
		if qty == 0 {
			qty = it.Qty
		}
		gst := it.GSTPercent
		if gst == nil {
			gst = it.GST
		}
		req.Items = append(req.Items, Item{
			ProductID:  it.ProductID,
			Quantity:   qty,
			UnitPrice:  *price,
			GSTPercent: gst,
		})
	}
	return req, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func isFormPost(c *fiber.Ctx) bool {
	ct := string(c.Request().Header.ContentType())
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// POST /api/billing/checkout
func CheckoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body checkoutBody
		if err := c.BodyParser(&body); err != nil {
			return validationf(0, "Invalid request body.")
		}

		req, err := body.request(actor.ID)
		if err != nil {
			return err
		}

		receipt, err := svc.Checkout(c.UserContext(), req)
		if err != nil {
			return err
		}

		err = audit.WriteLog(svc.db.WithContext(c.UserContext()), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Username,
			EntityType:  "sales_bill",
			EntityID:    receipt.SaleID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Sale %s for Rs.%s", receipt.BillNumber, receipt.Totals.Amount.StringFixed(2)),
			After:       receipt,
		})
		if err != nil {
			log.Warnw("sale committed without audit entry", "sale_id", receipt.SaleID, "err", err)
		}

		invoiceURL := fmt.Sprintf("/api/invoices/%d", receipt.SaleID)
		if isFormPost(c) && c.Get(fiber.HeaderXRequestedWith) != "XMLHttpRequest" {
			return c.Redirect(invoiceURL, fiber.StatusSeeOther)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":      true,
			"sale_id":      receipt.SaleID,
			"bill_number":  receipt.BillNumber,
			"invoice_url":  invoiceURL,
			"total_qty":    receipt.Totals.Qty,
			"total_amount": receipt.Totals.Amount.StringFixed(2),
			"total_gst":    receipt.Totals.GST.StringFixed(2),
			"cgst":         receipt.Totals.CGST.StringFixed(2),
			"sgst":         receipt.Totals.SGST.StringFixed(2),
		})
	}
}
