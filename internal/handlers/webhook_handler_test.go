package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

func webhookRouter(reconcile *services.ReconcileService, gateway *services.CashfreeService, logs *stubLogStore) *gin.Engine {
	r := gin.New()
	handler := NewWebhookHandler(reconcile, gateway, logs)
	r.POST("/api/webhook/cashfree", handler.Cashfree)
	return r
}

func postWebhook(r *gin.Engine, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/cashfree", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSuccessEventReconciles(t *testing.T) {
	txs := newStubTxStore(&models.Transaction{OrderID: "ord_wh_1", StudentID: 1, FeeID: 1, Amount: 20000, Status: models.TxPending})
	fees := newStubFeeStore(&models.Fee{ID: 1, StudentID: 1, TotalAmount: 60000, DueAmount: 60000, Status: models.FeePending})
	gw := &stubGateway{attempts: []services.PaymentAttempt{{Status: services.AttemptSuccess, PaymentID: "pay_1"}}}
	reconcile := services.NewReconcileService(txs, fees, gw, nil)
	cashfree := services.NewCashfreeService("", "", "", "")
	logs := &stubLogStore{}

	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"ord_wh_1"}}}`)
	w := postWebhook(webhookRouter(reconcile, cashfree, logs), body, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	trx, err := txs.FindByOrderID("ord_wh_1")
	require.NoError(t, err)
	assert.Equal(t, models.TxSuccess, trx.Status)

	fee, _ := fees.FindByID(1)
	assert.Equal(t, 20000.0, fee.PaidAmount)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, "ord_wh_1", logs.entries[0].OrderID)
}

func TestWebhookAlwaysAcksWith200(t *testing.T) {
	txs := newStubTxStore(&models.Transaction{OrderID: "ord_wh_2", StudentID: 1, FeeID: 1, Amount: 100, Status: models.TxPending})
	fees := newStubFeeStore(&models.Fee{ID: 1, StudentID: 1, TotalAmount: 100, DueAmount: 100, Status: models.FeePending})
	gw := &stubGateway{fetchErr: &services.GatewayError{Op: "fetch payments", Err: errors.New("down")}}
	reconcile := services.NewReconcileService(txs, fees, gw, nil)
	cashfree := services.NewCashfreeService("", "", "", "")
	r := webhookRouter(reconcile, cashfree, &stubLogStore{})

	bodies := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"type":"SOME_UNKNOWN_EVENT","data":{}}`),
		[]byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"no_such_order"}}}`),
		[]byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"ord_wh_2"}}}`),
	}
	for i, body := range bodies {
		w := postWebhook(r, body, nil)
		assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("body %d must be acknowledged", i))
	}

	// The reconcile failure left the transaction untouched for the sweep.
	trx, _ := txs.FindByOrderID("ord_wh_2")
	assert.Equal(t, models.TxPending, trx.Status)
}

func TestWebhookBadSignatureDroppedButAcked(t *testing.T) {
	txs := newStubTxStore(&models.Transaction{OrderID: "ord_wh_3", StudentID: 1, FeeID: 1, Amount: 100, Status: models.TxPending})
	fees := newStubFeeStore(&models.Fee{ID: 1, StudentID: 1, TotalAmount: 100, DueAmount: 100, Status: models.FeePending})
	gw := &stubGateway{attempts: []services.PaymentAttempt{{Status: services.AttemptSuccess, PaymentID: "pay_3"}}}
	reconcile := services.NewReconcileService(txs, fees, gw, nil)
	cashfree := services.NewCashfreeService("", "", "", "whsec")
	r := webhookRouter(reconcile, cashfree, &stubLogStore{})

	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"ord_wh_3"}}}`)
	w := postWebhook(r, body, map[string]string{
		"x-webhook-timestamp": "1693467000",
		"x-webhook-signature": "forged",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	trx, _ := txs.FindByOrderID("ord_wh_3")
	assert.Equal(t, models.TxPending, trx.Status)
}

func TestWebhookValidSignatureProcessed(t *testing.T) {
	txs := newStubTxStore(&models.Transaction{OrderID: "ord_wh_4", StudentID: 1, FeeID: 1, Amount: 100, Status: models.TxPending})
	fees := newStubFeeStore(&models.Fee{ID: 1, StudentID: 1, TotalAmount: 100, DueAmount: 100, Status: models.FeePending})
	gw := &stubGateway{attempts: []services.PaymentAttempt{{Status: services.AttemptSuccess, PaymentID: "pay_4"}}}
	reconcile := services.NewReconcileService(txs, fees, gw, nil)
	cashfree := services.NewCashfreeService("", "", "", "whsec")
	r := webhookRouter(reconcile, cashfree, &stubLogStore{})

	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"ord_wh_4"}}}`)
	timestamp := "1693467000"
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	w := postWebhook(r, body, map[string]string{
		"x-webhook-timestamp": timestamp,
		"x-webhook-signature": signature,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	trx, _ := txs.FindByOrderID("ord_wh_4")
	assert.Equal(t, models.TxSuccess, trx.Status)
}
