package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidHash = errors.New("invalid hash format")

// Argon2Params tunes the code digest. Codes are short-lived 6-digit values,
// so the cost is kept modest.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func defaultParams() Argon2Params {
	return Argon2Params{
		Memory:      16 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and verifies salted, peppered digests of one-time
// passcodes. The pepper is a server-side secret from configuration, distinct
// from the per-record salt stored next to the digest.
type Hasher struct {
	params Argon2Params
	pepper string
}

func NewHasher(pepper string) *Hasher {
	return &Hasher{
		params: defaultParams(),
		pepper: pepper,
	}
}

// GenerateCode returns a uniformly random 6-digit code in [100000, 999999]
// from a cryptographically secure source.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashCode digests the plaintext code with a fresh random salt. It returns
// the digest and the salt, both base64 encoded. The plaintext is discarded by
// the caller after this.
func (h *Hasher) HashCode(code string) (hash, salt string, err error) {
	saltBytes := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := argon2.IDKey(
		[]byte(code+h.pepper),
		saltBytes,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return base64.RawURLEncoding.EncodeToString(digest),
		base64.RawURLEncoding.EncodeToString(saltBytes), nil
}

// VerifyCode recomputes the digest of the submitted code under the stored
// salt and compares in constant time. Digest equality is the sole
// verification mechanism.
func (h *Hasher) VerifyCode(code, hash, salt string) (bool, error) {
	saltBytes, err := base64.RawURLEncoding.DecodeString(salt)
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawURLEncoding.DecodeString(hash)
	if err != nil {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey(
		[]byte(code+h.pepper),
		saltBytes,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
