package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the signature returned by the client-side
// checkout flow, computed over intentID + "|" + paymentID.
func VerifyPaymentSignature(secret, intentID, paymentID, signature string) bool {
	return equalSignature(Sign(secret, []byte(intentID+"|"+paymentID)), signature)
}

// VerifyWebhookSignature checks a webhook signature over the raw request body.
func VerifyWebhookSignature(secret string, rawBody []byte, signature string) bool {
	return equalSignature(Sign(secret, rawBody), signature)
}

func equalSignature(expected, got string) bool {
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
