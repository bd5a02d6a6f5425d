package sslcommerz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{StoreID: "store", StorePasswd: "secret", BaseURL: srv.URL})
}

func TestInitSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, initPath, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "store", r.PostForm.Get("store_id"))
		assert.Equal(t, "500.00", r.PostForm.Get("total_amount"))
		assert.Equal(t, "TXN1", r.PostForm.Get("tran_id"))
		assert.Equal(t, "enr-1", r.PostForm.Get("value_a"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"SUCCESS","sessionkey":"S1","GatewayPageURL":"https://pay.example/S1"}`))
	})

	session, err := client.InitSession(context.Background(), domain.CheckoutRequest{
		TransactionID: "TXN1",
		Amount:        decimal.NewFromInt(500),
		Currency:      "BDT",
		EnrollmentID:  "enr-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "S1", session.SessionKey)
	assert.Equal(t, "https://pay.example/S1", session.GatewayURL)
}

func TestInitSessionRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","failedreason":"Store Credential Error"}`))
	})

	_, err := client.InitSession(context.Background(), domain.CheckoutRequest{TransactionID: "TXN1"})
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Store Credential Error")
}

func TestValidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, validationPath, r.URL.Path)
		assert.Equal(t, "VAL1", r.URL.Query().Get("val_id"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"status":"VALID","tran_id":"TXN1","val_id":"VAL1","amount":"500.00","currency":"BDT","bank_tran_id":"B1","card_type":"VISA-Dutch Bangla"}`))
	})

	tx, err := client.Validate(context.Background(), "VAL1")
	require.NoError(t, err)
	assert.True(t, tx.IsValid())
	assert.Equal(t, "TXN1", tx.TransactionID)
	assert.True(t, decimal.NewFromInt(500).Equal(tx.Amount))
	assert.Equal(t, "BDT", tx.Currency)
	assert.Equal(t, "B1", tx.BankTransactionID)
}

func TestValidateInvalid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"INVALID_TRANSACTION"}`))
	})

	tx, err := client.Validate(context.Background(), "VAL1")
	require.NoError(t, err)
	assert.False(t, tx.IsValid())
}

func TestQueryTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, queryPath, r.URL.Path)
		assert.Equal(t, "TXN1", r.URL.Query().Get("tran_id"))
		_, _ = w.Write([]byte(`{"APIConnect":"DONE","no_of_trans_found":1,"element":[{"status":"FAILED","tran_id":"TXN1","amount":"500.00","currency":"BDT"}]}`))
	})

	txs, err := client.QueryTransaction(context.Background(), "TXN1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].IsValid())
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Validate(context.Background(), "VAL1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifySign(t *testing.T) {
	client := NewClient(Config{StoreID: "store", StorePasswd: "secret"})

	fields := map[string]string{
		"tran_id":    "TXN1",
		"val_id":     "VAL1",
		"amount":     "500.00",
		"status":     "VALID",
		"verify_key": "amount,status,tran_id,val_id",
	}
	// amount=..&status=..&store_passwd=md5(secret)&tran_id=..&val_id=..
	fields["verify_sign"] = md5Hex("amount=500.00&status=VALID&store_passwd=" + md5Hex("secret") + "&tran_id=TXN1&val_id=VAL1")

	assert.True(t, client.VerifySign(fields))

	fields["amount"] = "5.00"
	assert.False(t, client.VerifySign(fields))

	assert.False(t, client.VerifySign(map[string]string{"tran_id": "TXN1"}))
}
