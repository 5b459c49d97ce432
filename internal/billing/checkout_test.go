package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"footwear-backend/internal/models"
	"footwear-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db    *gorm.DB
	svc   *Service
	actor models.User
	h     testutil.Hierarchy
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return fixture{
		db:    db,
		svc:   NewService(db),
		actor: testutil.CreateUser(t, db, "counter", models.RoleStaff),
		h:     testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "8"),
	}
}

func (f fixture) sizeProduct(t *testing.T, size, mrp, gst string, qty int) models.Product {
	t.Helper()
	h := testutil.CreateHierarchy(t, f.db, f.h.Brand.Name, f.h.Category.Name, f.h.Section.Name, size)
	return testutil.CreateProduct(t, f.db, h, mrp, gst, qty)
}

func kindOf(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var be *Error
	require.True(t, errors.As(err, &be), "expected *billing.Error, got %T: %v", err, err)
	return be
}

func TestCheckout_SingleLineEndToEnd(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "12", 10)

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 4, UnitPrice: dec("900.00")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, receipt.Totals.Qty)
	assert.Equal(t, "4032.00", receipt.Totals.Amount.StringFixed(2))
	assert.Equal(t, "432.00", receipt.Totals.GST.StringFixed(2))
	assert.Equal(t, "216.00", receipt.Totals.CGST.StringFixed(2))
	assert.Equal(t, "216.00", receipt.Totals.SGST.StringFixed(2))
	assert.Equal(t, "400.00", receipt.Totals.Discount.StringFixed(2))
	assert.Equal(t, 6, testutil.StockOf(t, f.db, p.ID))

	var bill models.SalesBill
	require.NoError(t, f.db.Preload("Items").First(&bill, receipt.SaleID).Error)
	assert.Equal(t, receipt.BillNumber, bill.BillNumber)
	assert.Equal(t, models.PaymentCash, bill.PaymentMode)
	assert.Equal(t, f.actor.ID, bill.CreatedByID)
	assert.Nil(t, bill.CustomerID)
	assert.Equal(t, "4032.00", bill.TotalAmount.StringFixed(2))
	require.Len(t, bill.Items, 1)

	item := bill.Items[0]
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, "1000.00", item.MRP.StringFixed(2))
	assert.Equal(t, "900.00", item.SellingPrice.StringFixed(2))
	assert.Equal(t, "10.00", item.DiscountPercent.StringFixed(2))
	assert.Equal(t, "400.00", item.DiscountAmount.StringFixed(2))
	assert.Equal(t, "432.00", item.GSTAmount.StringFixed(2))
	assert.Equal(t, "4032.00", item.LineTotal.StringFixed(2))
}

func TestCheckout_DiscountCeilingBoundary(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 10)

	_, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("849.99")}},
	})
	be := kindOf(t, err)
	assert.Equal(t, KindDiscountExceedsPolicy, be.Kind)
	assert.True(t, errors.Is(err, ErrDiscountExceedsPolicy))
	assert.Equal(t, 1, be.Item)
	require.NotNil(t, be.AllowedDiscount)
	assert.Equal(t, "150.00", be.AllowedDiscount.StringFixed(2))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.SalesBill{}))
	assert.Equal(t, 10, testutil.StockOf(t, f.db, p.ID))

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("850.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "850.00", receipt.Totals.Amount.StringFixed(2))
	assert.Equal(t, 9, testutil.StockOf(t, f.db, p.ID))
}

func TestCheckout_PriceAboveMRPRejected(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "500.00", "0", 1)

	for _, price := range []string{"500.01", "550.00", "6000.00"} {
		_, err := f.svc.Checkout(context.Background(), Request{
			ActorID: f.actor.ID,
			Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec(price)}},
		})
		be := kindOf(t, err)
		assert.Equal(t, KindValidation, be.Kind, price)
		assert.Equal(t, 1, be.Item)
	}
	assert.EqualValues(t, 0, testutil.Count(t, f.db, &models.SalesBill{}))
	assert.Equal(t, 1, testutil.StockOf(t, f.db, p.ID))

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("500.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", receipt.Totals.Discount.StringFixed(2))
}

func TestCheckout_UnitPriceIsNormalizedToPaise(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "100.00", "12", 5)

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 3, UnitPrice: dec("99.995")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "36.00", receipt.Totals.GST.StringFixed(2))
	assert.Equal(t, "336.00", receipt.Totals.Amount.StringFixed(2))
	assert.Equal(t, "18.00", receipt.Totals.CGST.StringFixed(2))
}

func TestCheckout_GSTOverrideWinsOverProductRate(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "12", 5)
	rate := dec("5")

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000.00"), GSTPercent: &rate}},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", receipt.Totals.GST.StringFixed(2))
	assert.Equal(t, "1050.00", receipt.Totals.Amount.StringFixed(2))
}

func TestCheckout_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "12", 5)
	badRate := dec("101")

	cases := []struct {
		name string
		req  Request
		kind Kind
		item int
	}{
		{"empty cart", Request{}, KindValidation, 0},
		{"zero quantity", Request{Items: []Item{{ProductID: p.ID, Quantity: 0, UnitPrice: dec("900")}}}, KindValidation, 1},
		{"missing product id", Request{Items: []Item{{Quantity: 1, UnitPrice: dec("900")}}}, KindValidation, 1},
		{"negative price", Request{Items: []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("-1")}}}, KindValidation, 1},
		{"gst over 100", Request{Items: []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("900"), GSTPercent: &badRate}}}, KindValidation, 1},
		{"unknown payment", Request{PaymentMode: "BARTER", Items: []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("900")}}}, KindValidation, 0},
		{"credit without name", Request{PaymentMode: models.PaymentCredit, Items: []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("900")}}}, KindValidation, 0},
		{"unknown product", Request{Items: []Item{
			{ProductID: p.ID, Quantity: 1, UnitPrice: dec("900")},
			{ProductID: 9999, Quantity: 1, UnitPrice: dec("900")},
		}}, KindProductNotFound, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.ActorID = f.actor.ID
			_, err := f.svc.Checkout(context.Background(), tc.req)
			be := kindOf(t, err)
			assert.Equal(t, tc.kind, be.Kind)
			assert.Equal(t, tc.item, be.Item)
			assert.NotEmpty(t, be.Message)
		})
	}

	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.SalesBill{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Customer{}))
	assert.Equal(t, 5, testutil.StockOf(t, f.db, p.ID))
}

func TestCheckout_MissingStockRecord(t *testing.T) {
	f := newFixture(t)
	p := models.Product{
		BrandID: f.h.Brand.ID, CategoryID: f.h.Category.ID, SectionID: f.h.Section.ID, SizeID: f.h.Size.ID,
		MRP: dec("700"), DefaultDiscountPercent: dec("10"), GSTPercent: dec("0"),
	}
	require.NoError(t, f.db.Create(&p).Error)

	_, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("700")}},
	})
	assert.Equal(t, KindStockRecordMissing, kindOf(t, err).Kind)
}

func TestCheckout_InsufficientStockAggregatesRepeatedProduct(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 3)

	_, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items: []Item{
			{ProductID: p.ID, Quantity: 2, UnitPrice: dec("950")},
			{ProductID: p.ID, Quantity: 2, UnitPrice: dec("950")},
		},
	})
	be := kindOf(t, err)
	assert.Equal(t, KindInsufficientStock, be.Kind)
	assert.Equal(t, 2, be.Item)
	require.NotNil(t, be.Available)
	assert.Equal(t, 3, *be.Available)
	assert.Equal(t, 3, testutil.StockOf(t, f.db, p.ID))
}

func TestCheckout_MultiLineTotalsReconcile(t *testing.T) {
	f := newFixture(t)
	a := f.sizeProduct(t, "7", "1299.00", "12", 10)
	b := f.sizeProduct(t, "9", "499.00", "5", 10)
	c := f.sizeProduct(t, "10", "99.99", "0", 10)

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID:     f.actor.ID,
		PaymentMode: models.PaymentUPI,
		Items: []Item{
			{ProductID: a.ID, Quantity: 1, UnitPrice: dec("1199.00")},
			{ProductID: b.ID, Quantity: 3, UnitPrice: dec("449.10")},
			{ProductID: c.ID, Quantity: 2, UnitPrice: dec("99.99")},
		},
	})
	require.NoError(t, err)

	var items []models.SalesItem
	require.NoError(t, f.db.Where("sales_bill_id = ?", receipt.SaleID).Find(&items).Error)
	require.Len(t, items, 3)

	sumTotal, sumGST, qty := decimal.Zero, decimal.Zero, 0
	for _, it := range items {
		sumTotal = sumTotal.Add(it.LineTotal)
		sumGST = sumGST.Add(it.GSTAmount)
		qty += it.Quantity
	}
	assert.Equal(t, sumTotal.StringFixed(2), receipt.Totals.Amount.StringFixed(2))
	assert.Equal(t, sumGST.StringFixed(2), receipt.Totals.GST.StringFixed(2))
	assert.Equal(t, 6, qty)
	assert.Equal(t, receipt.Totals.CGST.StringFixed(2), receipt.Totals.SGST.StringFixed(2))

	assert.Equal(t, 9, testutil.StockOf(t, f.db, a.ID))
	assert.Equal(t, 7, testutil.StockOf(t, f.db, b.ID))
	assert.Equal(t, 8, testutil.StockOf(t, f.db, c.ID))
}

func TestCheckout_CustomerReusedByPhone(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 10)

	for _, name := range []string{"Ravi Kumar", "Ravi K"} {
		_, err := f.svc.Checkout(context.Background(), Request{
			ActorID:     f.actor.ID,
			PaymentMode: models.PaymentCredit,
			Customer:    &CustomerInput{Name: name, Phone: " 98765-43210 "},
			Items:       []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
		})
		require.NoError(t, err)
	}

	var customers []models.Customer
	require.NoError(t, f.db.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, "9876543210", customers[0].Phone)
	assert.Equal(t, "Ravi Kumar", customers[0].Name)

	var bills []models.SalesBill
	require.NoError(t, f.db.Find(&bills).Error)
	require.Len(t, bills, 2)
	for _, b := range bills {
		require.NotNil(t, b.CustomerID)
		assert.Equal(t, customers[0].ID, *b.CustomerID)
	}
}

func TestCheckout_CreditByKnownPhone(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 10)
	stored := models.Customer{Name: "Ravi Kumar", Phone: "9876543210"}
	require.NoError(t, f.db.Create(&stored).Error)

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID:     f.actor.ID,
		PaymentMode: models.PaymentCredit,
		Customer:    &CustomerInput{Phone: "98765 43210"},
		Items:       []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
	})
	require.NoError(t, err)
	var bill models.SalesBill
	require.NoError(t, f.db.First(&bill, receipt.SaleID).Error)
	require.NotNil(t, bill.CustomerID)
	assert.Equal(t, stored.ID, *bill.CustomerID)

	_, err = f.svc.Checkout(context.Background(), Request{
		ActorID:     f.actor.ID,
		PaymentMode: models.PaymentCredit,
		Customer:    &CustomerInput{Phone: "9000000001"},
		Items:       []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
	})
	assert.Equal(t, KindValidation, kindOf(t, err).Kind)
	assert.EqualValues(t, 1, testutil.Count(t, f.db, &models.Customer{}))
	assert.EqualValues(t, 1, testutil.Count(t, f.db, &models.SalesBill{}))
	assert.Equal(t, 9, testutil.StockOf(t, f.db, p.ID))
}

// Stock changes between pre-validation and commit must roll back every write of the
// attempt, including lines already inserted and the customer.
func TestCommit_FailureOnLaterLineRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	a := f.sizeProduct(t, "7", "1000.00", "0", 5)
	b := f.sizeProduct(t, "9", "1000.00", "0", 5)

	req := Request{
		ActorID:  f.actor.ID,
		Customer: &CustomerInput{Name: "Walk In", Phone: "9000000001"},
		Items: []Item{
			{ProductID: a.ID, Quantity: 2, UnitPrice: dec("1000")},
			{ProductID: b.ID, Quantity: 4, UnitPrice: dec("1000")},
		},
	}
	lines, err := f.svc.validate(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Stock{}).Where("product_id = ?", b.ID).Update("quantity", 1).Error)

	_, err = f.svc.commit(context.Background(), req, models.PaymentCash, lines, billNumber(time.Now(), 0))
	be := kindOf(t, err)
	assert.Equal(t, KindInsufficientStock, be.Kind)
	assert.Equal(t, 2, be.Item)
	require.NotNil(t, be.Available)
	assert.Equal(t, 1, *be.Available)

	assert.Equal(t, 5, testutil.StockOf(t, f.db, a.ID))
	assert.Equal(t, 1, testutil.StockOf(t, f.db, b.ID))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.SalesBill{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.SalesItem{}))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Customer{}))
}

func TestCheckout_RetriesOnBillNumberCollision(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 5)

	fixed := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)
	f.svc.now = func() time.Time { return fixed }

	taken := models.SalesBill{
		BillNumber: billNumber(fixed, 0), BillDate: fixed, PaymentMode: models.PaymentCash,
		TotalAmount: decimal.Zero, TotalDiscount: decimal.Zero, TotalGST: decimal.Zero,
		CGST: decimal.Zero, SGST: decimal.Zero, CreatedByID: f.actor.ID,
	}
	require.NoError(t, f.db.Create(&taken).Error)

	receipt, err := f.svc.Checkout(context.Background(), Request{
		ActorID: f.actor.ID,
		Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, taken.BillNumber, receipt.BillNumber)
	assert.Contains(t, receipt.BillNumber, taken.BillNumber+"-")
	assert.Equal(t, 4, testutil.StockOf(t, f.db, p.ID))
	assert.Equal(t, int64(2), testutil.Count(t, f.db, &models.SalesBill{}))
}

func TestCheckout_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 5)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
		numbers   = map[string]bool{}
	)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := f.svc.Checkout(context.Background(), Request{
				ActorID: f.actor.ID,
				Items:   []Item{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				committed++
				numbers[receipt.BillNumber] = true
				return
			}
			if errors.Is(err, ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, committed)
	assert.Equal(t, buyers-5, rejected)
	assert.Len(t, numbers, 5)
	assert.Equal(t, 0, testutil.StockOf(t, f.db, p.ID))
	assert.Equal(t, int64(5), testutil.Count(t, f.db, &models.SalesBill{}))
}

func TestCheckout_ConcurrentExactStockBothSucceed(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, f.h, "1000.00", "0", 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Checkout(context.Background(), Request{
				ActorID: f.actor.ID,
				Items:   []Item{{ProductID: p.ID, Quantity: 2, UnitPrice: dec("1000")}},
			})
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, 0, testutil.StockOf(t, f.db, p.ID))
}
