package billing

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindProductNotFound       Kind = "ProductNotFound"
	KindStockRecordMissing    Kind = "StockRecordMissing"
	KindDiscountExceedsPolicy Kind = "DiscountExceedsPolicy"
	KindInsufficientStock     Kind = "InsufficientStock"
	KindUnexpected            Kind = "Unexpected"
)

// Status is the HTTP status a failure of this kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindProductNotFound:
		return fiber.StatusNotFound
	case KindStockRecordMissing, KindInsufficientStock:
		return fiber.StatusConflict
	case KindDiscountExceedsPolicy:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// Error is a checkout failure. Item is the 1-based position in the request, 0 when the
// failure is not tied to one line.
type Error struct {
	Kind            Kind
	Message         string
	Item            int
	ProductID       uint
	Available       *int
	AllowedDiscount *decimal.Decimal
	Err             error
}

// Sentinels for errors.Is; any *Error of the same kind matches.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrProductNotFound       = &Error{Kind: KindProductNotFound}
	ErrStockRecordMissing    = &Error{Kind: KindStockRecordMissing}
	ErrDiscountExceedsPolicy = &Error{Kind: KindDiscountExceedsPolicy}
	ErrInsufficientStock     = &Error{Kind: KindInsufficientStock}
	ErrUnexpected            = &Error{Kind: KindUnexpected}
)

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindUnexpected {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Body is the JSON error response. Unexpected failures never expose internals.
func (e *Error) Body() fiber.Map {
	if e.Kind == KindUnexpected {
		return fiber.Map{
			"success": false,
			"kind":    e.Kind,
			"error":   "Server error while creating bill.",
		}
	}
	body := fiber.Map{
		"success": false,
		"kind":    e.Kind,
		"error":   e.Message,
	}
	if e.Item > 0 {
		body["item"] = e.Item
	}
	if e.ProductID > 0 {
		body["product_id"] = e.ProductID
	}
	if e.Available != nil {
		body["available"] = *e.Available
	}
	if e.AllowedDiscount != nil {
		body["allowed_discount"] = e.AllowedDiscount.StringFixed(2)
	}
	return body
}

func validationf(item int, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Item: item, Message: fmt.Sprintf(format, args...)}
}

func insufficient(item int, productID uint, name string, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Item:      item,
		ProductID: productID,
		Available: &available,
		Message:   fmt.Sprintf("Not enough stock for product %s. Available %d.", name, available),
	}
}

func unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Err: err}
}
