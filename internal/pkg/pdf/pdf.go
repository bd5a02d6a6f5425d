// Package pdf lays out invoices and completion certificates.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Renderer produces PDF documents with a fixed brand
type Renderer struct {
	Brand    string
	Compress bool
}

// NewRenderer creates a renderer with stream compression on
func NewRenderer(brand string) *Renderer {
	return &Renderer{Brand: brand, Compress: true}
}

// InvoiceData is everything printed on an invoice
type InvoiceData struct {
	InvoiceNumber string
	IssuedAt      time.Time
	StudentName   string
	StudentEmail  string
	CourseTitle   string
	Amount        string
	Currency      string
	PaymentMethod string
	TransactionID string
}

// CertificateData is everything printed on a certificate
type CertificateData struct {
	CertificateID  string
	StudentName    string
	CourseTitle    string
	InstructorName string
	CompletedAt    time.Time
}

func (r *Renderer) newDocument(orientation, title string) (*fpdf.Fpdf, func(string) string) {
	doc := fpdf.New(orientation, "mm", "A4", "")
	doc.SetCompression(r.Compress)
	doc.SetTitle(title, true)
	doc.SetCreator(r.Brand, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	// core fonts are cp1252
	return doc, doc.UnicodeTranslatorFromDescriptor("")
}

func output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Invoice renders a paid receipt
func (r *Renderer) Invoice(data InvoiceData) ([]byte, error) {
	doc, tr := r.newDocument("P", "Invoice "+data.InvoiceNumber)
	pageW, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	width := pageW - left - right

	// header
	doc.SetFont("Helvetica", "B", 22)
	doc.SetTextColor(33, 37, 41)
	doc.CellFormat(width*0.7, 12, tr(r.Brand), "", 0, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 16)
	doc.SetTextColor(25, 135, 84)
	doc.CellFormat(width*0.3, 12, "PAID", "1", 1, "C", false, 0, "")
	doc.SetTextColor(33, 37, 41)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(width, 6, "INVOICE", "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetDrawColor(200, 200, 200)
	y := doc.GetY()
	doc.Line(left, y, pageW-right, y)
	doc.Ln(6)

	// meta
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(40, 7, "Invoice No:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 7, tr(data.InvoiceNumber), "", 1, "L", false, 0, "")
	doc.CellFormat(40, 7, "Date:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 7, data.IssuedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	doc.Ln(6)

	// billed to
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 7, "Billed To", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(data.StudentName), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(data.StudentEmail), "", 1, "L", false, 0, "")
	doc.Ln(8)

	// line items
	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(241, 243, 245)
	doc.CellFormat(width*0.7, 9, "Course", "1", 0, "L", true, 0, "")
	doc.CellFormat(width*0.3, 9, "Amount", "1", 1, "R", true, 0, "")

	amount := fmt.Sprintf("%s %s", data.Currency, data.Amount)
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(width*0.7, 9, tr(data.CourseTitle), "1", 0, "L", false, 0, "")
	doc.CellFormat(width*0.3, 9, amount, "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(width*0.7, 9, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(width*0.3, 9, amount, "1", 1, "R", false, 0, "")
	doc.Ln(8)

	// payment
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(40, 6, "Payment Method:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(data.PaymentMethod), "", 1, "L", false, 0, "")
	doc.CellFormat(40, 6, "Transaction ID:", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(data.TransactionID), "", 1, "L", false, 0, "")

	// footer
	doc.SetY(-40)
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(108, 117, 125)
	doc.MultiCell(width, 5,
		"This is a computer generated invoice and does not require a signature. "+
			"Thank you for learning with "+tr(r.Brand)+".", "", "C", false)

	return output(doc)
}

// Certificate renders a landscape completion certificate
func (r *Renderer) Certificate(data CertificateData) ([]byte, error) {
	doc, tr := r.newDocument("L", "Certificate "+data.CertificateID)
	pageW, pageH := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	width := pageW - left - right

	doc.SetDrawColor(13, 110, 253)
	doc.SetLineWidth(1.5)
	doc.Rect(10, 10, pageW-20, pageH-20, "D")
	doc.SetLineWidth(0.3)
	doc.Rect(14, 14, pageW-28, pageH-28, "D")

	doc.SetY(38)
	doc.SetFont("Helvetica", "B", 30)
	doc.SetTextColor(33, 37, 41)
	doc.CellFormat(width, 14, "Certificate of Completion", "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(width, 8, "This certifies that", "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "B", 26)
	doc.SetTextColor(13, 110, 253)
	doc.CellFormat(width, 14, tr(data.StudentName), "", 1, "C", false, 0, "")
	doc.SetTextColor(33, 37, 41)
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(width, 8, "has successfully completed the course", "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "B", 20)
	doc.MultiCell(width, 10, tr(data.CourseTitle), "", "C", false)
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(width, 7, "Completed on "+data.CompletedAt.Format("02 January 2006"), "", 1, "C", false, 0, "")
	if data.InstructorName != "" {
		doc.CellFormat(width, 7, "Instructor: "+tr(data.InstructorName), "", 1, "C", false, 0, "")
	}

	doc.SetY(pageH - 34)
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(108, 117, 125)
	doc.CellFormat(width, 5, tr(r.Brand)+"  |  Certificate ID: "+tr(data.CertificateID), "", 1, "C", false, 0, "")

	return output(doc)
}
