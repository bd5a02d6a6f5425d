package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/internal/core/domain"
)

func TestSendGridMailerSend(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewSendGridMailer("sg-key", srv.URL, "CourseMart", "noreply@example.com")
	err := mailer.Send(context.Background(), domain.MailMessage{
		ToName:  "Alice",
		ToEmail: "alice@example.com",
		Subject: "Receipt",
		Text:    "Thanks",
		Attachments: []domain.MailAttachment{
			{Filename: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")},
		},
	})
	require.NoError(t, err)

	personalizations := body["personalizations"].([]interface{})
	first := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[CourseMart] Receipt", first["subject"])

	attachments := body["attachments"].([]interface{})
	att := attachments[0].(map[string]interface{})
	assert.Equal(t, "invoice.pdf", att["filename"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.3")), att["content"])
}

func TestSendGridMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	mailer := NewSendGridMailer("bad", srv.URL, "CourseMart", "noreply@example.com")
	err := mailer.Send(context.Background(), domain.MailMessage{ToEmail: "a@example.com", Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
