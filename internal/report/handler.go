package report

import (
	"bytes"
	"encoding/json"
	"time"

	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// DashboardHandler serves KPIs, payment totals, the best seller and a paged sales table.
func DashboardHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		r, err := ParseRange(c.Query("start_date"), c.Query("end_date"), now)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d, err := BuildDashboard(c.UserContext(), db, DashboardQuery{
			Range:    r,
			Search:   c.Query("search"),
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", defaultPageSize),
			Now:      now,
		})
		if err != nil {
			log.Errorw("dashboard query failed", "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the sales dashboard")
		}
		return c.JSON(d)
	}
}

// ExportHandler downloads every line in the range as csv (default) or xlsx.
func ExportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := ParseRange(c.Query("start_date"), c.Query("end_date"), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		format := c.Query("format", "csv")
		if format != "csv" && format != "xlsx" {
			return fiber.NewError(fiber.StatusBadRequest, "format must be csv or xlsx")
		}

		lines, err := ExportLines(c.UserContext(), db, r, c.Query("search"))
		if err != nil {
			log.Errorw("export query failed", "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export sales")
		}

		var buf bytes.Buffer
		if format == "xlsx" {
			err = WriteXLSX(&buf, lines)
			c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		} else {
			err = WriteCSV(&buf, lines)
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		}
		if err != nil {
			log.Errorw("export write failed", "format", format, "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export sales")
		}

		c.Attachment(ExportFilename(r, format))
		return c.Send(buf.Bytes())
	}
}

// ChartHandler buckets sales by payment mode: ?period=daily|weekly|monthly&count=N.
func ChartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chart, err := BuildChart(c.UserContext(), db, c.Query("period"), c.QueryInt("count"), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(chart)
	}
}

type summaryResponse struct {
	Day      string            `json:"day"`
	Bills    int               `json:"bills"`
	Qty      int               `json:"qty"`
	Sales    string            `json:"sales"`
	GST      string            `json:"gst"`
	Discount string            `json:"discount"`
	Expenses string            `json:"expenses"`
	Net      string            `json:"net"`
	Payments map[string]string `json:"payments"`
}

func toSummaryResponse(s models.DailySummary) summaryResponse {
	payments := map[string]string{}
	if s.PaymentData != "" {
		if err := json.Unmarshal([]byte(s.PaymentData), &payments); err != nil {
			log.Warnw("bad payment data on daily summary", "id", s.ID, "err", err)
		}
	}
	return summaryResponse{
		Day:      s.Day.Format(DayLayout),
		Bills:    s.Bills,
		Qty:      s.Qty,
		Sales:    s.Sales.StringFixed(2),
		GST:      s.GST.StringFixed(2),
		Discount: s.Discount.StringFixed(2),
		Expenses: s.Expenses.StringFixed(2),
		Net:      s.Net.StringFixed(2),
		Payments: payments,
	}
}

// ListDailySummariesHandler returns stored end-of-day summaries, newest first.
func ListDailySummariesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 31)
		if limit < 1 || limit > 366 {
			limit = 31
		}

		var rows []models.DailySummary
		if err := db.WithContext(c.UserContext()).Order("day DESC").Limit(limit).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load daily summaries")
		}

		out := make([]summaryResponse, 0, len(rows))
		for _, s := range rows {
			out = append(out, toSummaryResponse(s))
		}
		return c.JSON(out)
	}
}

// RunDailySummaryHandler recomputes the summary for ?date=DD-MM-YYYY (default today).
func RunDailySummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		day := time.Now()
		if d := c.Query("date"); d != "" {
			parsed, err := time.ParseInLocation(DayLayout, d, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be DD-MM-YYYY")
			}
			day = parsed
		}

		s, err := Summarize(c.UserContext(), db, day)
		if err != nil {
			log.Errorw("daily summary failed", "err", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute the daily summary")
		}
		return c.JSON(toSummaryResponse(*s))
	}
}
