package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

var testCreds = Credentials{
	RazorpayKeyID:     "rzp_test_key",
	RazorpayKeySecret: "rzp_test_secret",
	PayUMerchantKey:   "payu_key",
	PayUSalt:          "payu_salt",
	CCAvenueMerchant:  "cca_merchant",
	CCAvenueWorking:   "cca_working",
	PhonePeMerchantID: "pp_merchant",
	PhonePeSaltKey:    "pp_salt",
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(424800), minorUnits(4248))
	require.Equal(t, int64(103), minorUnits(1.03))
	require.Equal(t, int64(10), minorUnits(0.1))
}

func TestRazorpayOrderPayload(t *testing.T) {
	ord, err := buildOrder(testCreds, OrderRequest{
		Provider: ProviderRazorpay,
		Amount:   4248,
		OrderRef: "INV-1-abcd",
	})
	require.NoError(t, err)
	require.Equal(t, int64(424800), ord.Body["amount"])
	require.Equal(t, "INR", ord.Body["currency"])
	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("rzp_test_key:rzp_test_secret"))
	require.Equal(t, expected, ord.Headers["Authorization"])
}

func TestPayUHashSequence(t *testing.T) {
	ord, err := buildOrder(testCreds, OrderRequest{
		Provider:      ProviderPayU,
		Amount:        1475,
		OrderRef:      "TXN-9",
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "1475.00", ord.Body["amount"])

	seq := "payu_key|TXN-9|1475.00|membership|Asha|asha@example.com|||||||||||payu_salt"
	sum := sha512.Sum512([]byte(seq))
	require.Equal(t, hex.EncodeToString(sum[:]), ord.Body["hash"])
}

func TestCCAvenueSignature(t *testing.T) {
	ord, err := buildOrder(testCreds, OrderRequest{
		Provider: ProviderCCAvenue,
		Amount:   500.5,
		OrderRef: "ORD-1",
	})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("cca_working"))
	mac.Write([]byte("cca_merchant|ORD-1|500.50"))
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), ord.Body["signature"])
}

func TestPhonePeVerifyHeader(t *testing.T) {
	ord, err := buildOrder(testCreds, OrderRequest{
		Provider:      ProviderPhonePe,
		Amount:        999,
		OrderRef:      "PP-1",
		CustomerPhone: "9876543210",
	})
	require.NoError(t, err)

	encoded, ok := ord.Body["request"].(string)
	require.True(t, ok)
	sum := sha256.Sum256([]byte(encoded + "/pg/v1/pay" + "pp_salt"))
	require.Equal(t, hex.EncodeToString(sum[:])+"###1", ord.Headers["X-VERIFY"])
}

func TestBuildOrderUnknownProvider(t *testing.T) {
	_, err := buildOrder(testCreds, OrderRequest{Provider: "stripe", Amount: 10, OrderRef: "X"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateOrderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/razorpay/v1/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_123","status":"created"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testCreds)
	resp, err := client.CreateOrder(context.Background(), OrderRequest{
		Provider: ProviderRazorpay,
		Amount:   100,
		OrderRef: "REF-1",
	})
	require.NoError(t, err)
	require.Equal(t, "REF-1", resp.OrderRef)
	require.Equal(t, "order_123", resp.Raw["id"])
}

func TestCreateOrderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"merchant suspended"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testCreds)
	_, err := client.CreateOrder(context.Background(), OrderRequest{
		Provider: ProviderPayU,
		Amount:   100,
		OrderRef: "REF-2",
	})
	require.ErrorIs(t, err, shared.ErrGateway)
	require.Contains(t, err.Error(), "merchant suspended")
}
