// Package sslcommerz talks to the SSLCommerz hosted checkout.
package sslcommerz

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"coursemart/internal/core/domain"
)

const (
	SandboxURL = "https://sandbox.sslcommerz.com"
	LiveURL    = "https://securepay.sslcommerz.com"

	initPath       = "/gwprocess/v4/api.php"
	validationPath = "/validator/api/validationserverAPI.php"
	queryPath      = "/validator/api/merchantTransIDvalidationAPI.php"
)

var (
	ErrRejected      = errors.New("gateway rejected the request")
	ErrBadResponse   = errors.New("unexpected gateway response")
	ErrNotConfigured = errors.New("gateway credentials not configured")
)

// Config holds store credentials
type Config struct {
	StoreID     string
	StorePasswd string
	IsLive      bool
	BaseURL     string // overrides the sandbox/live host
	Timeout     time.Duration
}

// Client is an SSLCommerz API client
type Client struct {
	cfg  Config
	http *resty.Client
}

// NewClient creates a client for the sandbox or live host
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = SandboxURL
		if cfg.IsLive {
			base = LiveURL
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		// the gateway labels its JSON as text/html
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			r.ForceContentType("application/json")
			return nil
		})

	return &Client{cfg: cfg, http: http}
}

type initResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

type transaction struct {
	Status         string `json:"status"`
	TranID         string `json:"tran_id"`
	ValID          string `json:"val_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	BankTranID     string `json:"bank_tran_id"`
	CardType       string `json:"card_type"`
	CurrencyType   string `json:"currency_type"`
	CurrencyAmount string `json:"currency_amount"`
}

type queryResponse struct {
	APIConnect     string        `json:"APIConnect"`
	NoOfTransFound int           `json:"no_of_trans_found"`
	Element        []transaction `json:"element"`
}

func (c *Client) configured() error {
	if c.cfg.StoreID == "" || c.cfg.StorePasswd == "" {
		return ErrNotConfigured
	}
	return nil
}

// InitSession opens a hosted checkout session
func (c *Client) InitSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	phone := req.CustomerPhone
	if phone == "" {
		phone = "01700000000"
	}

	var out initResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetFormData(map[string]string{
			"store_id":         c.cfg.StoreID,
			"store_passwd":     c.cfg.StorePasswd,
			"total_amount":     req.Amount.StringFixed(2),
			"currency":         req.Currency,
			"tran_id":          req.TransactionID,
			"success_url":      req.SuccessURL,
			"fail_url":         req.FailURL,
			"cancel_url":       req.CancelURL,
			"ipn_url":          req.IPNURL,
			"cus_name":         req.CustomerName,
			"cus_email":        req.CustomerEmail,
			"cus_add1":         "N/A",
			"cus_city":         "Dhaka",
			"cus_country":      "Bangladesh",
			"cus_phone":        phone,
			"shipping_method":  "NO",
			"num_of_item":      "1",
			"product_name":     req.ProductName,
			"product_category": req.ProductCategory,
			"product_profile":  "non-physical-goods",
			"value_a":          req.EnrollmentID,
			"value_b":          req.StudentID,
		}).
		Post(initPath)
	if err != nil {
		return nil, fmt.Errorf("sslcommerz init: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: init http %d", ErrBadResponse, resp.StatusCode())
	}
	if out.Status != "SUCCESS" || out.GatewayPageURL == "" {
		reason := out.FailedReason
		if reason == "" {
			reason = "status " + out.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	return &domain.CheckoutSession{SessionKey: out.SessionKey, GatewayURL: out.GatewayPageURL}, nil
}

// Validate asks the gateway about a validation id received in a callback
func (c *Client) Validate(ctx context.Context, valID string) (*domain.GatewayTransaction, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var out transaction
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParams(map[string]string{
			"val_id":       valID,
			"store_id":     c.cfg.StoreID,
			"store_passwd": c.cfg.StorePasswd,
			"v":            "1",
			"format":       "json",
		}).
		Get(validationPath)
	if err != nil {
		return nil, fmt.Errorf("sslcommerz validate: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: validate http %d", ErrBadResponse, resp.StatusCode())
	}
	if out.ValID == "" {
		out.ValID = valID
	}
	return out.toDomain(), nil
}

// QueryTransaction lists the gateway's records for a merchant transaction id
func (c *Client) QueryTransaction(ctx context.Context, tranID string) ([]domain.GatewayTransaction, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	var out queryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParams(map[string]string{
			"tran_id":      tranID,
			"store_id":     c.cfg.StoreID,
			"store_passwd": c.cfg.StorePasswd,
			"format":       "json",
		}).
		Get(queryPath)
	if err != nil {
		return nil, fmt.Errorf("sslcommerz query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: query http %d", ErrBadResponse, resp.StatusCode())
	}
	if out.APIConnect != "" && out.APIConnect != "DONE" {
		return nil, fmt.Errorf("%w: APIConnect %s", ErrBadResponse, out.APIConnect)
	}

	txs := make([]domain.GatewayTransaction, 0, len(out.Element))
	for _, el := range out.Element {
		txs = append(txs, *el.toDomain())
	}
	return txs, nil
}

// VerifySign checks the verify_sign/verify_key pair posted with a callback.
// The signature is md5 over the sorted "key=value" pairs named in verify_key
// plus store_passwd=md5(store password).
func (c *Client) VerifySign(fields map[string]string) bool {
	sign := fields["verify_sign"]
	keys := fields["verify_key"]
	if sign == "" || keys == "" {
		return false
	}

	pairs := map[string]string{"store_passwd": md5Hex(c.cfg.StorePasswd)}
	for _, k := range strings.Split(keys, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		pairs[k] = fields[k]
	}

	names := make([]string, 0, len(pairs))
	for k := range pairs {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+pairs[k])
	}
	return strings.EqualFold(md5Hex(strings.Join(parts, "&")), sign)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (t transaction) toDomain() *domain.GatewayTransaction {
	// currency_type/currency_amount hold the originally requested values
	// when the gateway converted the charge
	rawAmount, currency := t.Amount, t.Currency
	if t.CurrencyType != "" && t.CurrencyAmount != "" {
		rawAmount, currency = t.CurrencyAmount, t.CurrencyType
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		amount = decimal.Zero
	}
	return &domain.GatewayTransaction{
		Status:            t.Status,
		TransactionID:     t.TranID,
		ValidationID:      t.ValID,
		BankTransactionID: t.BankTranID,
		CardType:          t.CardType,
		Amount:            amount,
		Currency:          currency,
	}
}
