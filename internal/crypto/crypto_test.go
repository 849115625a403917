package crypto

import (
	"crypto/sha256"
	"strings"
	"testing"
)

// newKeyedManager builds a KeyManager with a derived key, bypassing the
// process-wide singleton so tests stay independent of the environment.
func newKeyedManager(passphrase string) *KeyManager {
	hash := sha256.Sum256([]byte(passphrase))
	return &KeyManager{key: hash[:]}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"enc:v1:abcdef", true},
		{"plaintext", false},
		{"enc:v1:", false},
		{"", false},
		{"ENC:V1:abcdef", false},
	}

	for _, tt := range tests {
		if got := IsEncrypted(tt.value); got != tt.expected {
			t.Errorf("IsEncrypted(%q) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

func TestEncryptWithoutKeyPassesThrough(t *testing.T) {
	km := &KeyManager{}

	out, err := km.Encrypt("secret-url")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if out != "secret-url" {
		t.Errorf("without a key the plaintext must pass through, got %q", out)
	}
}

func TestDecryptWithoutPrefixPassesThrough(t *testing.T) {
	km := newKeyedManager("test-key")

	out, err := km.Decrypt("plain-value")
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if out != "plain-value" {
		t.Errorf("unprefixed values must pass through, got %q", out)
	}
}

func TestRoundTrip(t *testing.T) {
	km := newKeyedManager("test-key")

	plaintext := "discord://token@channel"
	encrypted, err := km.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if !strings.HasPrefix(encrypted, EncryptedPrefix) {
		t.Errorf("encrypted value missing prefix: %q", encrypted)
	}
	if strings.Contains(encrypted, "token") {
		t.Error("ciphertext must not contain the plaintext")
	}

	decrypted, err := km.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("round trip mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	km := newKeyedManager("test-key")

	a, err := km.Encrypt("same-input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := km.Encrypt("same-input")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext must differ (random nonce)")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	encrypted, err := newKeyedManager("key-one").Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := newKeyedManager("key-two").Decrypt(encrypted); err != ErrDecryptFailed {
		t.Errorf("expected ErrDecryptFailed, got %v", err)
	}
}

func TestDecryptEncryptedValueWithoutKey(t *testing.T) {
	encrypted, err := newKeyedManager("test-key").Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	km := &KeyManager{}
	if _, err := km.Decrypt(encrypted); err != ErrNoEncryptionKey {
		t.Errorf("expected ErrNoEncryptionKey, got %v", err)
	}
}

func TestDecryptInvalidBase64(t *testing.T) {
	km := newKeyedManager("test-key")

	if _, err := km.Decrypt(EncryptedPrefix + "not-valid-base64!!!"); err == nil {
		t.Error("invalid base64 must fail")
	}
}

func TestDecryptTooShort(t *testing.T) {
	km := newKeyedManager("test-key")

	if _, err := km.Decrypt(EncryptedPrefix + "YWJj"); err != ErrDecryptFailed {
		t.Errorf("truncated ciphertext must fail with ErrDecryptFailed, got %v", err)
	}
}
