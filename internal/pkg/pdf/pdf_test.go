package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainRenderer() *Renderer {
	r := NewRenderer("CourseMart")
	r.Compress = false
	return r
}

func TestInvoiceContainsAmountAndTitle(t *testing.T) {
	out, err := plainRenderer().Invoice(InvoiceData{
		InvoiceNumber: "INV-ABC123",
		IssuedAt:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StudentName:   "Alice",
		StudentEmail:  "alice@example.com",
		CourseTitle:   "Go Fundamentals",
		Amount:        "500.00",
		Currency:      "BDT",
		PaymentMethod: "gateway",
		TransactionID: "TXN0001",
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "500")
	assert.Contains(t, string(out), "Go Fundamentals")
	assert.Contains(t, string(out), "INV-ABC123")
	assert.Contains(t, string(out), "PAID")
}

func TestCertificate(t *testing.T) {
	out, err := plainRenderer().Certificate(CertificateData{
		CertificateID: "CERT-1",
		StudentName:   "Alice",
		CourseTitle:   "Go Fundamentals",
		CompletedAt:   time.Now(),
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "Alice")
	assert.Contains(t, string(out), "Certificate of Completion")
}

func TestCompressedOutputIsStillPDF(t *testing.T) {
	out, err := NewRenderer("CourseMart").Invoice(InvoiceData{InvoiceNumber: "INV-1", Amount: "1.00", Currency: "BDT"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
