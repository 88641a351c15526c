package report

import (
	"strings"
	"testing"
)

func TestPassPayloadRoundTrip(t *testing.T) {
	payload := SignedPassPayload("topsecret", "session-1", "enrollment-9")

	sessionID, enrollmentID, err := VerifyPassPayload("topsecret", payload)
	if err != nil {
		t.Fatalf("VerifyPassPayload: %v", err)
	}
	if sessionID != "session-1" || enrollmentID != "enrollment-9" {
		t.Errorf("got (%s, %s), want (session-1, enrollment-9)", sessionID, enrollmentID)
	}
}

func TestPassPayloadRejectsTampering(t *testing.T) {
	payload := SignedPassPayload("topsecret", "session-1", "enrollment-9")

	// Redirect the pass at another enrollment, keep the signature.
	tampered := strings.Replace(payload, "enrollment-9", "enrollment-2", 1)
	if _, _, err := VerifyPassPayload("topsecret", tampered); err == nil {
		t.Error("tampered payload verified")
	}

	if _, _, err := VerifyPassPayload("wrongsecret", payload); err == nil {
		t.Error("payload verified with the wrong secret")
	}

	if _, _, err := VerifyPassPayload("topsecret", "not|a|pass"); err == nil {
		t.Error("malformed payload verified")
	}
}
