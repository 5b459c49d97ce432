package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var exportHeader = []string{
	"Date", "Bill No", "Article", "Category", "Size", "Qty",
	"MRP", "Discount", "Total GST", "Total", "Payment Mode", "Customer Mobile Number",
}

const exportSheet = "Sales"

// ExportLines returns every line the dashboard table would show for r and search.
func ExportLines(ctx context.Context, db *gorm.DB, r Range, search string) ([]LineRow, error) {
	var lines []LineRow
	err := orderedLines(lineQuery(db.WithContext(ctx), r, search)).Scan(&lines).Error
	return lines, err
}

func exportRecord(l LineRow) []string {
	return []string{
		l.BillDate.Format(DayLayout),
		l.BillNumber,
		l.Article(),
		l.Category,
		l.Size,
		strconv.Itoa(l.Quantity),
		l.MRP.StringFixed(2),
		l.DiscountAmount.StringFixed(2),
		l.GSTAmount.StringFixed(2),
		l.LineTotal.StringFixed(2),
		l.PaymentMode,
		l.CustomerPhone,
	}
}

func WriteCSV(w io.Writer, lines []LineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write(exportRecord(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same columns as WriteCSV with numeric cells for the amounts.
func WriteXLSX(w io.Writer, lines []LineRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	for i, l := range lines {
		row := []any{
			l.BillDate.Format(DayLayout),
			l.BillNumber,
			l.Article(),
			l.Category,
			l.Size,
			l.Quantity,
			l.MRP.InexactFloat64(),
			l.DiscountAmount.InexactFloat64(),
			l.GSTAmount.InexactFloat64(),
			l.LineTotal.InexactFloat64(),
			l.PaymentMode,
			l.CustomerPhone,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return err
	}
	if len(lines) > 0 {
		if err := f.SetCellStyle(exportSheet, "G2", fmt.Sprintf("J%d", len(lines)+1), style); err != nil {
			return err
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// ExportFilename is sales_YYYYMMDD_YYYYMMDD.<ext>.
func ExportFilename(r Range, ext string) string {
	return fmt.Sprintf("sales_%s_%s.%s", r.Start.Format("20060102"), r.End.Format("20060102"), ext)
}
