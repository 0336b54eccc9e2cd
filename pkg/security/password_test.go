package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/security"
)

func cheapHasher() *security.Argon2Hasher {
	return security.NewArgon2Hasher(config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	h := cheapHasher()

	hash, err := h.Hash("superadmin")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := h.Verify("superadmin", hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed for the correct password: ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("superadmin ", hash)
	if err != nil {
		t.Fatalf("Verify returned error for wrong password: %v", err)
	}
	if ok {
		t.Fatal("Verify must be an exact match")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := cheapHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	if _, err := cheapHasher().Hash(""); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$***$aGFzaA",
	} {
		if _, err := cheapHasher().Verify("pw", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}
