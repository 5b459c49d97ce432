// Package billing is the point-of-sale checkout: it validates a cart against live stock
// and the discount policy, then writes the sales bill, its lines and the stock
// decrements in one transaction.
package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"footwear-backend/internal/metrics"
	"footwear-backend/internal/models"
	"footwear-backend/internal/money"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item is one requested cart line. GSTPercent falls back to the product's rate.
type Item struct {
	ProductID  uint
	Quantity   int
	UnitPrice  decimal.Decimal
	GSTPercent *decimal.Decimal
}

type Request struct {
	ActorID     uint
	PaymentMode models.PaymentMode
	Customer    *CustomerInput
	Items       []Item
}

type Receipt struct {
	SaleID     uint
	BillNumber string
	Totals     Final
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// line is a request item after pre-validation.
type line struct {
	item      int
	product   models.Product
	qty       int
	mrp       decimal.Decimal
	unitPrice decimal.Decimal
	gst       decimal.Decimal
}

// Checkout either commits the whole sale and returns its receipt, or returns an *Error
// and leaves the database untouched.
func (s *Service) Checkout(ctx context.Context, req Request) (*Receipt, error) {
	start := time.Now()
	receipt, err := s.checkout(ctx, req)
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := string(KindUnexpected)
		var be *Error
		if errors.As(err, &be) {
			outcome = string(be.Kind)
		}
		metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.CheckoutsTotal.WithLabelValues("committed").Inc()
	metrics.StockUnitsMoved.WithLabelValues("out").Add(float64(receipt.Totals.Qty))
	return receipt, nil
}

func (s *Service) checkout(ctx context.Context, req Request) (*Receipt, error) {
	mode, err := validatePayment(req)
	if err != nil {
		return nil, err
	}

	lines, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxBillNumberAttempts; attempt++ {
		receipt, err := s.commit(ctx, req, mode, lines, billNumber(s.now(), attempt))
		if err == nil {
			return receipt, nil
		}

		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Errorw("checkout rolled back", "actor", req.ActorID, "err", err)
			return nil, unexpected(err)
		}

		log.Warnw("bill number conflict, retrying checkout", "attempt", attempt+1, "err", err)
		lastErr = err
	}

	return nil, unexpected(fmt.Errorf("no unique bill number after %d attempts: %w", maxBillNumberAttempts, lastErr))
}

func validatePayment(req Request) (models.PaymentMode, error) {
	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentCash
	}
	if !mode.ValidForSale() {
		return "", validationf(0, "Unknown payment mode %q.", req.PaymentMode)
	}
	if mode == models.PaymentCredit {
		if name, phone := req.Customer.normalized(); name == "" && phone == "" {
			return "", validationf(0, "Credit sales need a customer name.")
		}
	}
	return mode, nil
}

// validate is read-only and runs outside any lock. Its stock check is advisory; the
// locked re-check in commit is the one that prevents overselling.
func (s *Service) validate(ctx context.Context, req Request) ([]line, error) {
	if len(req.Items) == 0 {
		return nil, validationf(0, "At least one item required.")
	}

	db := s.db.WithContext(ctx)
	requested := make(map[uint]int, len(req.Items))
	lines := make([]line, 0, len(req.Items))

	for i, it := range req.Items {
		n := i + 1
		if it.ProductID == 0 {
			return nil, validationf(n, "Invalid data for item #%d.", n)
		}
		if it.Quantity <= 0 {
			return nil, validationf(n, "Quantity must be positive for item #%d.", n)
		}
		if it.UnitPrice.IsNegative() {
			return nil, validationf(n, "Price must not be negative for item #%d.", n)
		}
		if it.GSTPercent != nil && (it.GSTPercent.IsNegative() || it.GSTPercent.GreaterThan(money.Hundred)) {
			return nil, validationf(n, "GST percent must be between 0 and 100 for item #%d.", n)
		}

		var p models.Product
		err := db.Preload("Stock").Preload("Brand").Preload("Section").Preload("Size").
			First(&p, it.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{
				Kind:      KindProductNotFound,
				Item:      n,
				ProductID: it.ProductID,
				Message:   fmt.Sprintf("Product id %d not found (item #%d).", it.ProductID, n),
			}
		}
		if err != nil {
			return nil, unexpected(err)
		}

		if p.Stock == nil {
			return nil, &Error{
				Kind:      KindStockRecordMissing,
				Item:      n,
				ProductID: p.ID,
				Message:   fmt.Sprintf("No stock record for product %s.", p.DisplayName()),
			}
		}

		requested[p.ID] += it.Quantity
		if p.Stock.Quantity < requested[p.ID] {
			return nil, insufficient(n, p.ID, p.DisplayName(), p.Stock.Quantity)
		}

		mrp := money.Round2(p.MRP)
		price := money.Normalize(it.UnitPrice)
		gst := money.Round2(p.GSTPercent)
		if it.GSTPercent != nil {
			gst = money.Round2(*it.GSTPercent)
		}

		if price.GreaterThan(mrp) {
			return nil, validationf(n, "Price %s is above MRP %s for item #%d.", price.StringFixed(2), mrp.StringFixed(2), n)
		}
		if !DiscountAllowed(mrp, price) {
			allowed := AllowedDiscount(mrp)
			return nil, &Error{
				Kind:            KindDiscountExceedsPolicy,
				Item:            n,
				ProductID:       p.ID,
				AllowedDiscount: &allowed,
				Message: fmt.Sprintf("Manual discount on product %s exceeds %s%% of MRP (max Rs.%s).",
					p.DisplayName(), MaxDiscountRate.Mul(money.Hundred).String(), allowed.StringFixed(2)),
			}
		}

		lines = append(lines, line{
			item:      n,
			product:   p,
			qty:       it.Quantity,
			mrp:       mrp,
			unitPrice: price,
			gst:       gst,
		})
	}

	return lines, nil
}

func (s *Service) commit(ctx context.Context, req Request, mode models.PaymentMode, lines []line, number string) (*Receipt, error) {
	var receipt *Receipt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerID, err := resolveCustomer(tx, req.Customer, mode == models.PaymentCredit)
		if err != nil {
			return err
		}

		bill := models.SalesBill{
			BillNumber:    number,
			BillDate:      s.now(),
			CustomerID:    customerID,
			PaymentMode:   mode,
			TotalAmount:   decimal.Zero,
			TotalDiscount: decimal.Zero,
			TotalGST:      decimal.Zero,
			CGST:          decimal.Zero,
			SGST:          decimal.Zero,
			CreatedByID:   req.ActorID,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}

		stocks, err := lockStocks(tx, lines)
		if err != nil {
			return err
		}

		var totals Totals
		for _, l := range lines {
			st, ok := stocks[l.product.ID]
			if !ok {
				return &Error{
					Kind:      KindStockRecordMissing,
					Item:      l.item,
					ProductID: l.product.ID,
					Message:   fmt.Sprintf("No stock record for product %s.", l.product.DisplayName()),
				}
			}
			if st.Quantity < l.qty {
				return insufficient(l.item, l.product.ID, l.product.DisplayName(), st.Quantity)
			}

			amounts := ComputeLine(l.mrp, l.unitPrice, l.qty, l.gst)
			item := models.SalesItem{
				SalesBillID:     bill.ID,
				ProductID:       l.product.ID,
				Quantity:        l.qty,
				MRP:             l.mrp,
				SellingPrice:    l.unitPrice,
				DiscountPercent: amounts.DiscountPercent,
				DiscountAmount:  amounts.DiscountAmount,
				GSTPercent:      l.gst,
				GSTAmount:       amounts.GSTAmount,
				LineTotal:       amounts.LineTotal,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			res := tx.Model(&models.Stock{}).
				Where("id = ? AND quantity >= ?", st.ID, l.qty).
				Update("quantity", gorm.Expr("quantity - ?", l.qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return insufficient(l.item, l.product.ID, l.product.DisplayName(), st.Quantity)
			}
			st.Quantity -= l.qty

			totals.Add(l.qty, amounts)
		}

		final := totals.Finalize()
		err = tx.Model(&bill).Updates(map[string]any{
			"total_qty":      final.Qty,
			"total_amount":   final.Amount,
			"total_discount": final.Discount,
			"total_gst":      final.GST,
			"cgst":           final.CGST,
			"sgst":           final.SGST,
		}).Error
		if err != nil {
			return err
		}

		receipt = &Receipt{SaleID: bill.ID, BillNumber: bill.BillNumber, Totals: final}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// lockStocks takes FOR UPDATE locks on the stock rows of every product in the cart,
// in ascending product id order so two carts sharing products cannot deadlock.
// Quantities read here are authoritative for the rest of the transaction.
func lockStocks(tx *gorm.DB, lines []line) (map[uint]*models.Stock, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.product.ID] {
			seen[l.product.ID] = true
			ids = append(ids, l.product.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stocks := make(map[uint]*models.Stock, len(ids))
	for _, id := range ids {
		var st models.Stock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", id).
			First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		stocks[id] = &st
	}
	return stocks, nil
}
