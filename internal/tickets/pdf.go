package tickets

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"eventhive/internal/models"
)

// TicketPDF строит одностраничный A4-билет с QR-кодом
func TicketPDF(event *models.Event, reg *models.Registration) ([]byte, error) {
	qr, err := QRCodePNG(reg.ConfirmationCode, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("EventHive ticket "+reg.ConfirmationCode, false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, tr(event.Title), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 13)
	when := event.Date
	if event.Time != "" {
		when += " " + event.Time
	}
	pdf.CellFormat(0, 8, tr(when), "", 1, "C", false, 0, "")
	if event.Location != "" {
		pdf.CellFormat(0, 8, tr(event.Location), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	imgName := "qr_" + reg.ConfirmationCode
	pdf.RegisterImageOptionsReader(imgName, imgOpts, bytes.NewReader(qr))
	pdf.ImageOptions(imgName, (210.0-90.0)/2, pdf.GetY(), 90, 90, false, imgOpts, 0, "")
	pdf.Ln(96)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	rows := [][2]string{
		{"Attendee", reg.FullName()},
		{"Email", reg.Email},
		{"Tickets", strconv.Itoa(reg.TicketQuantity)},
		{"Confirmation", reg.ConfirmationCode},
		{"Payment", string(reg.PaymentStatus)},
	}
	if reg.TotalAmount > 0 {
		rows = append(rows, [2]string{"Total", fmt.Sprintf("%.2f", reg.TotalAmount)})
	}

	for _, row := range rows {
		pdf.SetX(30)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 8, tr(row[1]), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket PDF: %w", err)
	}
	return buf.Bytes(), nil
}
