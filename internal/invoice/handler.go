package invoice

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// InvoiceHandler serves GET /api/invoices/:id. The PDF opens inline unless ?download=1.
func InvoiceHandler(db *gorm.DB, shop Shop) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid bill id")
		}

		bill, err := Load(c.UserContext(), db, uint(id))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bill not found")
		}
		if err != nil {
			log.Errorw("invoice load failed", "bill_id", id, "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load bill")
		}

		var buf bytes.Buffer
		if err := Render(&buf, shop, bill); err != nil {
			log.Errorw("invoice render failed", "bill", bill.BillNumber, "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not render invoice")
		}

		filename := fmt.Sprintf("Invoice_%s.pdf", bill.BillNumber)
		c.Set(fiber.HeaderContentType, "application/pdf")
		if c.QueryBool("download") {
			c.Attachment(filename)
		} else {
			c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
		}
		return c.Send(buf.Bytes())
	}
}
