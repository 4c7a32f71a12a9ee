package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type InvoiceController struct {
	Queries  *services.BookingQueryService
	Workers  *services.WorkerDirectory
	Currency string
}

func NewInvoiceController(queries *services.BookingQueryService, workers *services.WorkerDirectory, currency string) *InvoiceController {
	return &InvoiceController{Queries: queries, Workers: workers, Currency: currency}
}

type InvoiceLine struct {
	Description        string          `json:"description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ShiftType          string          `json:"shift_type"`
	ShiftChargePercent decimal.Decimal `json:"shift_charge_percent"`
	ShiftCharge        decimal.Decimal `json:"shift_charge"`
	Total              decimal.Decimal `json:"total"`
}

type Invoice struct {
	Number         string      `json:"number"`
	IssuedAt       time.Time   `json:"issued_at"`
	BookingID      uint        `json:"booking_id"`
	Status         string      `json:"status"`
	PaymentMethod  string      `json:"payment_method"`
	CustomerName   string      `json:"customer_name"`
	CustomerEmail  string      `json:"customer_email"`
	CustomerPhone  string      `json:"customer_phone"`
	ServiceAddress string      `json:"service_address"`
	ScheduledAt    time.Time   `json:"scheduled_at"`
	Line           InvoiceLine `json:"line"`
	Currency       string      `json:"currency"`
	TotalFormatted string      `json:"total_formatted"`
}

// BuildInvoice renders a booking's frozen terms. Nothing is recomputed.
func BuildInvoice(b *models.Booking, currency string) Invoice {
	description := fmt.Sprintf("Service #%d", b.ServiceID)
	if b.Service != nil {
		description = b.Service.Name
	}
	if b.ServiceSubcategory != nil {
		description += " - " + b.ServiceSubcategory.Name
	}

	return Invoice{
		Number:         fmt.Sprintf("INV/%s/%06d", b.CreatedAt.Format("20060102"), b.ID),
		IssuedAt:       b.CreatedAt,
		BookingID:      b.ID,
		Status:         string(b.Status),
		PaymentMethod:  b.PaymentMethod,
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.CustomerEmail,
		CustomerPhone:  b.CustomerPhone,
		ServiceAddress: b.ServiceAddress,
		ScheduledAt:    b.ScheduledAt,
		Line: InvoiceLine{
			Description:        description,
			Quantity:           b.Quantity,
			UnitPrice:          b.UnitPrice,
			Subtotal:           b.SubtotalAmount,
			ShiftType:          string(b.ShiftType),
			ShiftChargePercent: b.ShiftChargePercent,
			ShiftCharge:        b.ShiftChargeAmount(),
			Total:              b.TotalAmount,
		},
		Currency:       currency,
		TotalFormatted: utils.FormatMoney(b.TotalAmount, currency),
	}
}

// GetInvoice -> GET /booking/:id/invoice[?format=pdf]
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := ic.Queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !authorizeView(c, ic.Workers, ic.Queries, booking) {
		return
	}

	invoice := BuildInvoice(booking, ic.Currency)
	if c.Query("format") != "pdf" {
		utils.RespondJSON(c, http.StatusOK, "Invoice generated successfully", invoice)
		return
	}

	pdf, err := RenderInvoicePDF(invoice)
	if err != nil {
		utils.RespondInternalError(c, "Failed to render invoice", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%06d.pdf"`, booking.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func RenderInvoicePDF(inv Invoice) ([]byte, error) {
	money := func(d decimal.Decimal) string {
		return utils.FormatMoney(d, inv.Currency)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Invoice no.", inv.Number},
		{"Issued", inv.IssuedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Scheduled", inv.ScheduledAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Status", inv.Status},
		{"Customer", inv.CustomerName},
		{"Email", inv.CustomerEmail},
		{"Phone", inv.CustomerPhone},
		{"Address", inv.ServiceAddress},
	} {
		pdf.CellFormat(35, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 8, inv.Line.Description, "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, fmt.Sprintf("%d", inv.Line.Quantity), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, money(inv.Line.UnitPrice), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, money(inv.Line.Subtotal), "1", 1, "R", false, 0, "")

	label := fmt.Sprintf("Shift charge (%s, %s%%)", inv.Line.ShiftType, inv.Line.ShiftChargePercent.StringFixed(2))
	pdf.CellFormat(150, 8, label, "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, money(inv.Line.ShiftCharge), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(150, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, money(inv.Line.Total), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
