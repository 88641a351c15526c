package report

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pass payloads are what the front desk scans at check-in:
// sessionID|enrollmentID|timestamp|signature. The signature covers everything
// before it, so a scanned code cannot be replayed against another enrollment.

// SignedPassPayload builds the signed QR payload for one enrollment.
func SignedPassPayload(secret, sessionID, enrollmentID string) string {
	timestamp := time.Now().Unix()
	data := fmt.Sprintf("%s|%s|%d", sessionID, enrollmentID, timestamp)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyPassPayload checks the signature and returns the session and
// enrollment IDs embedded in a scanned payload.
func VerifyPassPayload(secret, payload string) (sessionID, enrollmentID string, err error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 4 {
		return "", "", errors.New("malformed pass payload")
	}
	data := strings.Join(parts[:3], "|")

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(parts[3])) {
		return "", "", errors.New("invalid pass signature")
	}
	return parts[0], parts[1], nil
}
