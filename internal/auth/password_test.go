package auth

import (
	"strings"
	"testing"
)

// cheapParams keeps the tests fast; the PHC format is the same.
var cheapParams = Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHasher_Format(t *testing.T) {
	t.Parallel()

	hash, err := NewHasher(cheapParams).Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash should have 6 parts, got: %d", len(parts))
	}
	if parts[2] != "v=19" {
		t.Errorf("Expected v=19, got: %s", parts[2])
	}
	if parts[3] != "m=1024,t=1,p=1" {
		t.Errorf("Expected m=1024,t=1,p=1, got: %s", parts[3])
	}
}

func TestHashPassword_DefaultParams(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.Contains(hash, "$m=65536,t=3,p=4$") {
		t.Errorf("Expected default params in hash, got: %s", hash)
	}

	ok, err := VerifyPassword("secret", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword = %v, %v; want true, nil", ok, err)
	}
}

func TestHasher_Uniqueness(t *testing.T) {
	t.Parallel()

	h := NewHasher(cheapParams)
	hash1, _ := h.Hash("same")
	hash2, _ := h.Hash("same")

	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}

	match1, _ := h.Verify("same", hash1)
	match2, _ := h.Verify("same", hash2)
	if !match1 || !match2 {
		t.Error("Both hashes should verify correctly")
	}
}

func TestHasher_VerifyIncorrect(t *testing.T) {
	t.Parallel()

	h := NewHasher(cheapParams)
	hash, err := h.Hash("right")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	match, err := h.Verify("wrong", hash)
	if err != nil {
		t.Fatalf("Verify should not return error for wrong password: %v", err)
	}
	if match {
		t.Error("Wrong password should not match")
	}
}

func TestHasher_VerifyParamsFromHash(t *testing.T) {
	t.Parallel()

	// Hashes carry their own params; a hasher configured differently still verifies.
	hash, err := NewHasher(cheapParams).Hash("pw")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	other := NewHasher(Params{Time: 2, Memory: 2048, Threads: 2, KeyLen: 16, SaltLen: 8})
	match, err := other.Verify("pw", hash)
	if err != nil || !match {
		t.Errorf("Verify = %v, %v; want true, nil", match, err)
	}
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"wrong format", "not-a-hash", ErrInvalidHash},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$salt$hash", ErrInvalidHash},
		{"missing parts", "$argon2id$v=19$m=65536", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$c29tZWhhc2g", ErrInvalidHash},
		{"wrong version", "$argon2id$v=18$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJl", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			match, err := VerifyPassword("password", tt.hash)
			if err != tt.wantErr {
				t.Errorf("VerifyPassword error = %v, want %v", err, tt.wantErr)
			}
			if match {
				t.Error("invalid hash should never match")
			}
		})
	}
}

func TestTokenDigest(t *testing.T) {
	t.Parallel()

	if TokenDigest("a") != TokenDigest("a") {
		t.Error("Same input should produce same digest")
	}
	if TokenDigest("a") == TokenDigest("b") {
		t.Error("Different input should produce different digest")
	}
	if got := len(TokenDigest(strings.Repeat("x", 1000))); got != 32 {
		t.Errorf("Digest should be 32 chars, got: %d", got)
	}
}
