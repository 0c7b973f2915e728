package model

import (
	"testing"
	"time"
)

func TestEnumValidation(t *testing.T) {
	if !RoleCandidate.Valid() || !RoleEmployer.Valid() {
		t.Error("expected canonical roles to be valid")
	}
	if Role("ADMIN").Valid() || Role("candidate").Valid() {
		t.Error("roles are closed and case-sensitive")
	}

	if !IntentRegister.Valid() || !IntentLogin.Valid() {
		t.Error("expected canonical intents to be valid")
	}
	if Intent("RESET").Valid() {
		t.Error("intents are closed")
	}

	if !ChannelEmail.Valid() || !ChannelPhone.Valid() {
		t.Error("expected canonical channels to be valid")
	}
	if Channel("SMS").Valid() {
		t.Error("channels are closed")
	}
}

func TestNormalizeLanguageLevel(t *testing.T) {
	for _, raw := range []string{"A1", "A2", "B1", "B2", "C1", "C2", "NATIVE"} {
		level, ok := NormalizeLanguageLevel(raw)
		if !ok || string(level) != raw {
			t.Errorf("NormalizeLanguageLevel(%q) = (%q, %v)", raw, level, ok)
		}
	}

	level, ok := NormalizeLanguageLevel("NATIVE_SPEAKER")
	if !ok || level != LevelNative {
		t.Errorf("NATIVE_SPEAKER alias = (%q, %v), want NATIVE", level, ok)
	}

	if _, ok := NormalizeLanguageLevel("fluent"); ok {
		t.Error("expected unknown level to be rejected")
	}
}

func TestOTPExpired(t *testing.T) {
	now := time.Now().UTC()
	otp := &OTP{ExpiresAt: now.Add(time.Minute)}

	if otp.Expired(now) {
		t.Error("not yet expired")
	}
	if !otp.Expired(now.Add(2 * time.Minute)) {
		t.Error("expected expiry after the deadline")
	}
}
