package domain

import "github.com/shopspring/decimal"

// CheckoutRequest opens a hosted payment session
type CheckoutRequest struct {
	TransactionID   string
	Amount          decimal.Decimal
	Currency        string
	ProductName     string
	ProductCategory string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	SuccessURL      string
	FailURL         string
	CancelURL       string
	IPNURL          string

	// echoed back by the gateway; informational only
	EnrollmentID string
	StudentID    string
}

// CheckoutSession is where the customer is sent to pay
type CheckoutSession struct {
	SessionKey string
	GatewayURL string
}

// GatewayTransaction is the gateway's own record of a transaction
type GatewayTransaction struct {
	Status            string
	TransactionID     string
	ValidationID      string
	BankTransactionID string
	CardType          string
	Amount            decimal.Decimal
	Currency          string
}

// IsValid reports whether the gateway considers the money captured
func (t *GatewayTransaction) IsValid() bool {
	return t.Status == "VALID" || t.Status == "VALIDATED"
}
