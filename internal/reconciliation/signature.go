package reconciliation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerificationPayload is the message a client verification signs.
func VerificationPayload(sessionID, paymentID string) []byte {
	return []byte(sessionID + "|" + paymentID)
}

// checkSignature compares the provided hex signature in constant time.
func checkSignature(secret string, payload []byte, provided string) error {
	expected := Sign(secret, payload)
	got := strings.ToLower(strings.TrimSpace(provided))
	if !hmac.Equal([]byte(expected), []byte(got)) {
		return InvalidSignature()
	}
	return nil
}

// InvalidSignature is returned when a verification or webhook signature does not match.
func InvalidSignature() error {
	return pkgerrors.New(pkgerrors.CodeInvalidSignature, "payment signature mismatch")
}

// MissingSignature is returned when a webhook arrives without a signature header.
func MissingSignature() error {
	return pkgerrors.New(pkgerrors.CodeMissingSignature, "payment signature header missing")
}
