package billing

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/service/billing"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeWebhooks struct {
	provider string
	payload  string
}

func (f *fakeWebhooks) HandleWebhook(_ context.Context, provider string, payload []byte, header http.Header) (billing.Outcome, error) {
	f.provider, f.payload = provider, string(payload)
	switch header.Get("X-Test-Signature") {
	case "good":
		return billing.OutcomeApplied, nil
	case "replay":
		return billing.OutcomeDuplicate, nil
	case "db-down":
		return "", errors.New("connection refused")
	}
	return "", app_errors.ErrInvalidSignature
}

func init() {
	gin.SetMode(gin.TestMode)
}

func deliver(r http.Handler, provider, signature, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+provider, strings.NewReader(body))
	req.Header.Set("X-Test-Signature", signature)
	r.ServeHTTP(w, req)
	return w
}

func TestReceive(t *testing.T) {
	s := &fakeWebhooks{}
	h := NewWebhookHandler(logger.NewDiscard(), s, 64)
	r := gin.New()
	r.POST("/webhooks/:provider", h.Receive)

	w := deliver(r, "paystack", "good", `{"event":"subscription.create"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outcome":"applied"}`, w.Body.String())
	assert.Equal(t, "paystack", s.provider)
	assert.Equal(t, `{"event":"subscription.create"}`, s.payload)

	w = deliver(r, "stripe", "replay", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outcome":"duplicate"}`, w.Body.String())

	w = deliver(r, "stripe", "forged", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = deliver(r, "stripe", "db-down", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = deliver(r, "stripe", "good", strings.Repeat("x", 65))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
