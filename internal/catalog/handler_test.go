package catalog

import (
	"net/http"
	"testing"

	"footwear-backend/internal/models"
	"footwear-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "owner", models.RoleAdmin)

	app := fiber.New()
	app.Use(testutil.AsActor(admin))
	app.Get("/brands", ListBrandsHandler(db))
	app.Get("/categories", ListCategoriesHandler(db))
	app.Get("/sections", ListSectionsHandler(db))
	app.Get("/sizes", ListSizesHandler(db))
	app.Get("/product-info", ProductInfoHandler(db))
	app.Post("/master/brands", CreateBrandHandler(db))
	app.Post("/master/categories", CreateCategoryHandler(db))
	app.Post("/master/sections", CreateSectionHandler(db))
	app.Post("/master/sizes", CreateSizesHandler(db))
	return app, db
}

func get(t *testing.T, app *fiber.App, target string, out any) int {
	t.Helper()
	resp, err := app.Test(testutil.JSONRequest(t, http.MethodGet, target, nil))
	require.NoError(t, err)
	return testutil.Decode(t, resp, out)
}

func post(t *testing.T, app *fiber.App, target string, body any, out any) int {
	t.Helper()
	resp, err := app.Test(testutil.JSONRequest(t, http.MethodPost, target, body))
	require.NoError(t, err)
	if resp.StatusCode >= 400 {
		return testutil.Decode(t, resp, nil)
	}
	return testutil.Decode(t, resp, out)
}

func TestLookupsFollowTheHierarchy(t *testing.T) {
	app, db := newApp(t)
	h := testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "8")
	testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "9")
	testutil.CreateHierarchy(t, db, "Paragon", "Kids", "Sandal", "3")

	var cats []OptionResponse
	require.Equal(t, http.StatusOK, get(t, app, "/categories?brand_id="+itoa(h.Brand.ID), &cats))
	assert.Equal(t, []OptionResponse{{ID: h.Category.ID, Name: "Men"}}, cats)

	var secs []OptionResponse
	require.Equal(t, http.StatusOK, get(t, app, "/sections?category_id="+itoa(h.Category.ID), &secs))
	assert.Equal(t, []OptionResponse{{ID: h.Section.ID, Name: "Formal"}}, secs)

	var sizes []SizeResponse
	require.Equal(t, http.StatusOK, get(t, app, "/sizes?section_id="+itoa(h.Section.ID), &sizes))
	require.Len(t, sizes, 2)
	assert.Equal(t, "8", sizes[0].Value)
	assert.Equal(t, "9", sizes[1].Value)

	var brands []OptionResponse
	require.Equal(t, http.StatusOK, get(t, app, "/brands", &brands))
	assert.Len(t, brands, 2)
}

func TestLookupsReturnEmptyListForMissingParent(t *testing.T) {
	app, _ := newApp(t)

	for _, target := range []string{"/categories", "/categories?brand_id=abc", "/sections?category_id=42", "/sizes"} {
		var out []map[string]any
		require.Equal(t, http.StatusOK, get(t, app, target, &out), target)
		assert.NotNil(t, out, target)
		assert.Empty(t, out, target)
	}
}

func TestProductInfoListsEveryMRP(t *testing.T) {
	app, db := newApp(t)
	h := testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "8")
	first := testutil.CreateProduct(t, db, h, "999.00", "12", 4)
	second := testutil.CreateProduct(t, db, h, "1099.00", "12", 0)

	target := "/product-info?brand_id=" + itoa(h.Brand.ID) + "&category_id=" + itoa(h.Category.ID) +
		"&section_id=" + itoa(h.Section.ID) + "&size_id=" + itoa(h.Size.ID)

	var info []ProductInfoResponse
	require.Equal(t, http.StatusOK, get(t, app, target, &info))
	require.Len(t, info, 2)
	assert.Equal(t, first.ID, info[0].ProductID)
	assert.Equal(t, "999.00", info[0].MRP.StringFixed(2))
	assert.Equal(t, 4, info[0].StockQty)
	assert.Equal(t, "10.00", info[0].DefaultDiscount.StringFixed(2))
	assert.Equal(t, second.ID, info[1].ProductID)
	assert.Equal(t, 0, info[1].StockQty)
}

func TestProductInfoNotFound(t *testing.T) {
	app, db := newApp(t)
	h := testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "8")

	target := "/product-info?brand_id=" + itoa(h.Brand.ID) + "&category_id=" + itoa(h.Category.ID) +
		"&section_id=" + itoa(h.Section.ID) + "&size_id=" + itoa(h.Size.ID)
	assert.Equal(t, http.StatusNotFound, get(t, app, target, nil))
	assert.Equal(t, http.StatusNotFound, get(t, app, "/product-info?brand_id=1", nil))
}

func TestMasterDataCreateRejectsCaseInsensitiveDuplicates(t *testing.T) {
	app, db := newApp(t)

	var brand OptionResponse
	require.Equal(t, http.StatusCreated, post(t, app, "/master/brands", CreateNamedRequest{Name: "  Red   Chief "}, &brand))
	assert.Equal(t, "Red Chief", brand.Name)
	assert.Equal(t, http.StatusConflict, post(t, app, "/master/brands", CreateNamedRequest{Name: "red chief"}, nil))

	var cat OptionResponse
	require.Equal(t, http.StatusCreated, post(t, app, "/master/categories", CreateNamedRequest{ParentID: brand.ID, Name: "Men"}, &cat))
	assert.Equal(t, http.StatusConflict, post(t, app, "/master/categories", CreateNamedRequest{ParentID: brand.ID, Name: "MEN"}, nil))
	assert.Equal(t, http.StatusNotFound, post(t, app, "/master/categories", CreateNamedRequest{ParentID: 999, Name: "Women"}, nil))

	var sec OptionResponse
	require.Equal(t, http.StatusCreated, post(t, app, "/master/sections", CreateNamedRequest{ParentID: cat.ID, Name: "Casual"}, &sec))
	assert.Equal(t, http.StatusBadRequest, post(t, app, "/master/sections", CreateNamedRequest{ParentID: cat.ID, Name: "  "}, nil))

	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Brand{}))
	assert.Equal(t, int64(3), testutil.Count(t, db, &models.AuditLog{}))
}

func TestCreateSizesReportsAddedAndSkipped(t *testing.T) {
	app, db := newApp(t)
	h := testutil.CreateHierarchy(t, db, "Bata", "Men", "Formal", "8")

	var res CreateSizesResponse
	require.Equal(t, http.StatusCreated, post(t, app, "/master/sizes",
		CreateSizesRequest{SectionID: h.Section.ID, Sizes: []string{"7", "8", " 9 ", "7", "Free"}}, &res))
	assert.Equal(t, []string{"7", "9", "Free"}, res.Added)
	assert.Equal(t, []string{"8"}, res.Skipped)
	assert.Equal(t, int64(4), testutil.Count(t, db, &models.Size{}))

	assert.Equal(t, http.StatusNotFound, post(t, app, "/master/sizes", CreateSizesRequest{SectionID: 404, Sizes: []string{"6"}}, nil))
}
