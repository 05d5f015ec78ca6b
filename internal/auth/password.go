package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters used for new hashes.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultParams follow the OWASP Argon2id recommendation.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

// MaxArgon2Memory bounds the memory cost (KiB) accepted from a stored hash.
// Params above it produce hashes Verify refuses.
const MaxArgon2Memory = 1024 * 1024

var errInvalidHash = errors.New("invalid argon2id hash")

// CredentialManager hashes and verifies passwords with Argon2id.
// Hashes use the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
type CredentialManager struct {
	params Params

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialManager(params Params) *CredentialManager {
	return &CredentialManager{params: params}
}

// Hash returns the PHC encoding of plaintext with a fresh random salt.
func (m *CredentialManager) Hash(plaintext string) (string, error) {
	salt := make([]byte, m.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	p := m.params
	hash := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether plaintext matches encoded. A malformed or
// unsupported hash never matches.
func (m *CredentialManager) Verify(encoded, plaintext string) bool {
	salt, hash, p, err := decodePHC(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

// VerifyDummy spends the cost of one verification without a stored hash, so
// a login for an unknown email takes as long as one with a wrong password.
func (m *CredentialManager) VerifyDummy(plaintext string) {
	m.dummyOnce.Do(func() {
		m.dummyHash, _ = m.Hash("dummy-password")
	})
	m.Verify(m.dummyHash, plaintext)
}

func decodePHC(encoded string) (salt, hash []byte, p Params, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, nil, p, errInvalidHash
	}
	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("%w: unsupported algorithm %q", errInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, p, fmt.Errorf("%w: bad version", errInvalidHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return nil, nil, p, fmt.Errorf("%w: parsing parameters: %w", errInvalidHash, err)
	}
	if p.Memory == 0 || p.Memory > MaxArgon2Memory || p.Time == 0 || p.Threads == 0 {
		return nil, nil, p, fmt.Errorf("%w: parameters out of range", errInvalidHash)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, p, fmt.Errorf("%w: decoding salt: %w", errInvalidHash, err)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, nil, p, fmt.Errorf("%w: decoding hash", errInvalidHash)
	}

	return salt, hash, p, nil
}
