package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Sign computes the hex HMAC-SHA256 of the raw webhook body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature header against the raw body.  The
// comparison is constant time.
func VerifySignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return errors.New(errors.ErrCodeInvalidSignature, "webhook signature header is missing")
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.New(errors.ErrCodeInvalidSignature, "webhook signature does not match")
	}
	return nil
}
