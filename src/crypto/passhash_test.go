package crypto

import "testing"

func TestHashAndVerify(t *testing.T) {
	salt, err := RandBytes(16)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}

	hash := HashPassword([]byte("hunter2"), salt)
	if len(hash) != int(argonKeyLen) {
		t.Fatalf("expected %d byte hash, got %d", argonKeyLen, len(hash))
	}

	if !VerifyPassword([]byte("hunter2"), salt, hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword([]byte("wrong"), salt, hash) {
		t.Error("wrong password should not verify")
	}

	otherSalt, _ := RandBytes(16)
	if VerifyPassword([]byte("hunter2"), otherSalt, hash) {
		t.Error("wrong salt should not verify")
	}
}
