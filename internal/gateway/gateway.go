// Package gateway builds and submits payment-gateway order requests for
// the supported Indian providers. No provider SDKs are used; each order
// is a signed JSON payload posted with a shared HTTP client.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fitcore/fitcore/internal/shared"
)

// Provider identifies a supported payment gateway.
type Provider string

const (
	ProviderRazorpay Provider = "razorpay"
	ProviderPayU     Provider = "payu"
	ProviderCCAvenue Provider = "ccavenue"
	ProviderPhonePe  Provider = "phonepe"
)

// Credentials holds per-provider merchant secrets from configuration.
type Credentials struct {
	RazorpayKeyID     string
	RazorpayKeySecret string
	PayUMerchantKey   string
	PayUSalt          string
	CCAvenueMerchant  string
	CCAvenueWorking   string
	PhonePeMerchantID string
	PhonePeSaltKey    string
}

// OrderRequest describes the order to create with a provider.
type OrderRequest struct {
	Provider      Provider `json:"provider" validate:"required,oneof=razorpay payu ccavenue phonepe"`
	Amount        float64  `json:"amount" validate:"required,gt=0"`
	Currency      string   `json:"currency"`
	OrderRef      string   `json:"order_ref" validate:"required"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string   `json:"customer_phone"`
}

// order is the provider-ready request: path, headers and body.
type order struct {
	Path    string
	Headers map[string]string
	Body    map[string]any
}

// minorUnits converts a rupee amount to paise without float drift.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// buildOrder assembles the provider-specific payload and signature.
func buildOrder(creds Credentials, req OrderRequest) (order, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	switch req.Provider {
	case ProviderRazorpay:
		auth := base64.StdEncoding.EncodeToString([]byte(creds.RazorpayKeyID + ":" + creds.RazorpayKeySecret))
		return order{
			Path:    "/razorpay/v1/orders",
			Headers: map[string]string{"Authorization": "Basic " + auth},
			Body: map[string]any{
				"amount":   minorUnits(req.Amount),
				"currency": currency,
				"receipt":  req.OrderRef,
			},
		}, nil
	case ProviderPayU:
		amount := formatAmount(req.Amount)
		hash := payuHash(creds.PayUMerchantKey, creds.PayUSalt, req.OrderRef, amount, req.CustomerName, req.CustomerEmail)
		return order{
			Path: "/payu/_payment",
			Body: map[string]any{
				"key":         creds.PayUMerchantKey,
				"txnid":       req.OrderRef,
				"amount":      amount,
				"productinfo": "membership",
				"firstname":   req.CustomerName,
				"email":       req.CustomerEmail,
				"phone":       req.CustomerPhone,
				"hash":        hash,
			},
		}, nil
	case ProviderCCAvenue:
		amount := formatAmount(req.Amount)
		return order{
			Path: "/ccavenue/transaction/orders",
			Body: map[string]any{
				"merchant_id": creds.CCAvenueMerchant,
				"order_id":    req.OrderRef,
				"amount":      amount,
				"currency":    currency,
				"signature":   ccavenueSignature(creds.CCAvenueMerchant, creds.CCAvenueWorking, req.OrderRef, amount),
			},
		}, nil
	case ProviderPhonePe:
		payload := map[string]any{
			"merchantId":            creds.PhonePeMerchantID,
			"merchantTransactionId": req.OrderRef,
			"amount":                minorUnits(req.Amount),
			"mobileNumber":          req.CustomerPhone,
			"paymentInstrument":     map[string]any{"type": "PAY_PAGE"},
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return order{}, err
		}
		encoded := base64.StdEncoding.EncodeToString(raw)
		return order{
			Path:    "/phonepe/pg/v1/pay",
			Headers: map[string]string{"X-VERIFY": phonePeVerify(encoded, creds.PhonePeSaltKey)},
			Body:    map[string]any{"request": encoded},
		}, nil
	default:
		return order{}, fmt.Errorf("%w: unknown provider %q", shared.ErrValidation, req.Provider)
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// payuHash is sha512 over the documented pipe-joined field sequence,
// including the five reserved udf slots.
func payuHash(key, salt, txnid, amount, firstname, email string) string {
	seq := key + "|" + txnid + "|" + amount + "|membership|" + firstname + "|" + email + "|||||||||||" + salt
	sum := sha512.Sum512([]byte(seq))
	return hex.EncodeToString(sum[:])
}

// ccavenueSignature is an HMAC-SHA256 over merchant, order and amount
// keyed with the working key.
func ccavenueSignature(merchant, workingKey, orderID, amount string) string {
	mac := hmac.New(sha256.New, []byte(workingKey))
	mac.Write([]byte(merchant + "|" + orderID + "|" + amount))
	return hex.EncodeToString(mac.Sum(nil))
}

// phonePeVerify is sha256(base64Payload + path + saltKey) + "###1".
func phonePeVerify(encodedPayload, saltKey string) string {
	sum := sha256.Sum256([]byte(encodedPayload + "/pg/v1/pay" + saltKey))
	return hex.EncodeToString(sum[:]) + "###1"
}
