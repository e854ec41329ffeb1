package security_test

import (
	"testing"

	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/security"
)

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty string")
	}

	ok, err := h.Verify("very-secure-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("Verify failed for the correct password")
	}

	ok, err = h.Verify("bogus-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestVerifyUsesEmbeddedParams(t *testing.T) {
	hash, err := testHasher().Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	other := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 2, ArgonParallelism: 2, ArgonSaltLen: 8, ArgonKeyLen: 16})
	ok, err := other.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("expected hash to verify with different hasher config, ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := testHasher().Verify("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := testHasher().Verify("irrelevant", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5"); err == nil {
		t.Fatal("expected error for malformed params")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := testHasher().Hash("short"); err != security.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}
