package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

// VAT factors applied to the stock valuation: gross includes the 12%
// VAT, net strips the withheld portion.
var (
	vatGrossFactor = decimal.NewFromFloat(1.12)
	vatNetFactor   = decimal.NewFromFloat(0.88)
)

type ReportsController struct {
	DB *gorm.DB
}

func NewReportsController(db *gorm.DB) *ReportsController {
	return &ReportsController{DB: db}
}

type inventoryRow struct {
	Product models.Product
	Cost    decimal.Decimal
	Gross   decimal.Decimal
	Net     decimal.Decimal
}

func (rc *ReportsController) inventoryRows() ([]inventoryRow, error) {
	var products []models.Product
	if err := rc.DB.Preload("Category").Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}

	rows := make([]inventoryRow, 0, len(products))
	for _, product := range products {
		cost := product.Price.Mul(decimal.NewFromInt(int64(product.Quantity)))
		rows = append(rows, inventoryRow{
			Product: product,
			Cost:    cost.Round(2),
			Gross:   cost.Mul(vatGrossFactor).Round(2),
			Net:     cost.Mul(vatNetFactor).Round(2),
		})
	}
	return rows, nil
}

// InventoryReportXLSX streams the stock valuation as a spreadsheet.
func (rc *ReportsController) InventoryReportXLSX(c *gin.Context) {
	rows, err := rc.inventoryRows()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	xlsx := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Code", "Name", "Category", "Unit", "Price", "Quantity", "Ideal Count", "Cost", "Gross (VAT in)", "Net (VAT out)"}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		xlsx.SetCellValue(sheet, cell, header)
	}

	totalCost := decimal.Zero
	for i, row := range rows {
		r := i + 2
		code := ""
		if row.Product.Code != nil {
			code = *row.Product.Code
		}
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", r), code)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.Product.Name)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Product.Category.Name)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.Product.UnitOfMeasurement)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.Product.Price.StringFixed(2))
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", r), row.Product.Quantity)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", r), row.Product.IdealCount)
		xlsx.SetCellValue(sheet, fmt.Sprintf("H%d", r), row.Cost.StringFixed(2))
		xlsx.SetCellValue(sheet, fmt.Sprintf("I%d", r), row.Gross.StringFixed(2))
		xlsx.SetCellValue(sheet, fmt.Sprintf("J%d", r), row.Net.StringFixed(2))
		totalCost = totalCost.Add(row.Cost)
	}

	summaryRow := len(rows) + 3
	xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", summaryRow), "Total Cost")
	xlsx.SetCellValue(sheet, fmt.Sprintf("H%d", summaryRow), totalCost.StringFixed(2))

	filename := fmt.Sprintf("inventory_report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := xlsx.Write(c.Writer); err != nil {
		utils.ErrorLogger.Printf("writing inventory report: %v", err)
	}
}

// InventoryReportPDF streams the stock valuation as a PDF.
func (rc *ReportsController) InventoryReportPDF(c *gin.Context) {
	rows, err := rc.inventoryRows()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Mindoro Auto Parts - Inventory Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{40, 70, 35, 25, 25, 25, 28, 28}
	headers := []string{"Code", "Name", "Category", "Price", "Qty", "Cost", "Gross", "Net"}
	pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	totalCost := decimal.Zero
	for _, row := range rows {
		code := ""
		if row.Product.Code != nil {
			code = *row.Product.Code
		}
		pdf.CellFormat(widths[0], 6, code, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, row.Product.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, row.Product.Category.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, row.Product.Price.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d", row.Product.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, row.Cost.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, row.Gross.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[7], 6, row.Net.StringFixed(2), "1", 1, "R", false, 0, "")
		totalCost = totalCost.Add(row.Cost)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.Ln(2)
	pdf.CellFormat(0, 7, "Total stock cost: "+utils.FormatCurrencyPHP(totalCost), "", 1, "R", false, 0, "")

	filename := fmt.Sprintf("inventory_report_%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/pdf")
	if err := pdf.Output(c.Writer); err != nil {
		utils.ErrorLogger.Printf("writing inventory report pdf: %v", err)
	}
}

type salesRow struct {
	OrderID    uint      `json:"order_id"`
	OrderDate  time.Time `json:"order_date"`
	Status     string    `json:"status"`
	Customer   string    `json:"customer"`
	TotalPrice string    `json:"total_price"`
}

func (rc *ReportsController) salesRows(from, to time.Time) ([]salesRow, decimal.Decimal, error) {
	var orders []models.Order
	err := rc.DB.Preload("Customer").
		Where("status IN ?", []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}).
		Where("order_date BETWEEN ? AND ?", from, to).
		Order("order_date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, decimal.Zero, err
	}

	rows := make([]salesRow, 0, len(orders))
	total := decimal.Zero
	for _, order := range orders {
		customer := "Walk-in"
		if order.Customer != nil {
			customer = order.Customer.FirstName + " " + order.Customer.LastName
		}
		rows = append(rows, salesRow{
			OrderID:    order.ID,
			OrderDate:  order.OrderDate,
			Status:     order.Status,
			Customer:   customer,
			TotalPrice: order.TotalPrice.StringFixed(2),
		})
		total = total.Add(order.TotalPrice)
	}
	return rows, total, nil
}

type categoryTotal struct {
	Category  string
	UnitsSold int64
	Revenue   float64
}

func (rc *ReportsController) categoryTotals(from, to time.Time) ([]categoryTotal, error) {
	var rows []categoryTotal
	err := rc.DB.Model(&models.OrderDetail{}).
		Select("categories.name AS category, SUM(order_details.quantity) AS units_sold, SUM(order_details.total_price) AS revenue").
		Joins("JOIN products ON products.id = order_details.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("orders.status IN ?", []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}).
		Where("orders.order_date BETWEEN ? AND ?", from, to).
		Group("categories.name").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid 'from' date: %s", v)
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid 'to' date: %s", v)
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// SalesReportXLSX streams completed sales in a date range as a
// spreadsheet.
func (rc *ReportsController) SalesReportXLSX(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	rows, total, err := rc.salesRows(from, to)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	xlsx := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Order ID", "Date", "Status", "Customer", "Total"}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		xlsx.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		r := i + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.OrderID)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.OrderDate.Format("2006-01-02 15:04"))
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Status)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.Customer)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.TotalPrice)
	}

	summaryRow := len(rows) + 3
	xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", summaryRow), "Total Sales")
	xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", summaryRow), total.StringFixed(2))

	if byCategory, err := rc.categoryTotals(from, to); err == nil {
		headerRow := summaryRow + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", headerRow), "Category")
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", headerRow), "Units Sold")
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", headerRow), "Revenue")
		for i, row := range byCategory {
			r := headerRow + 1 + i
			xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.Category)
			xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.UnitsSold)
			xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", r), fmt.Sprintf("%.2f", row.Revenue))
		}
	}

	filename := fmt.Sprintf("sales_report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := xlsx.Write(c.Writer); err != nil {
		utils.ErrorLogger.Printf("writing sales report: %v", err)
	}
}

// SalesReportPDF streams completed sales in a date range as a PDF.
func (rc *ReportsController) SalesReportPDF(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	rows, total, err := rc.salesRows(from, to)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Mindoro Auto Parts - Sales Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s", from.Format("Jan 2, 2006"), to.Format("Jan 2, 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{25, 40, 35, 60, 30}
	headers := []string{"Order", "Date", "Status", "Customer", "Total"}
	pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", row.OrderID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[1], 6, row.OrderDate.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, row.Status, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, row.Customer, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, row.TotalPrice, "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.Ln(2)
	pdf.CellFormat(0, 7, "Total sales: "+utils.FormatCurrencyPHP(total), "", 1, "R", false, 0, "")

	if byCategory, err := rc.categoryTotals(from, to); err == nil && len(byCategory) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 8, "Sales by Category", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(80, 7, "Category", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, "Units Sold", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, "Revenue", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		for _, row := range byCategory {
			pdf.CellFormat(80, 6, row.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%d", row.UnitsSold), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", row.Revenue), "1", 1, "R", false, 0, "")
		}
	}

	filename := fmt.Sprintf("sales_report_%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/pdf")
	if err := pdf.Output(c.Writer); err != nil {
		utils.ErrorLogger.Printf("writing sales report pdf: %v", err)
	}
}
