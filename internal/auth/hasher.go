package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns passwords into digests and checks them.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) bool
}

// LegacyDigest is a single unsalted SHA-256 round, hex encoded. Existing
// stored digests were produced this way, so it stays the default; identical
// passwords share a digest and the scheme is open to precomputed lookups.
type LegacyDigest struct{}

func (LegacyDigest) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (d LegacyDigest) Verify(digest, password string) bool {
	candidate, _ := d.Hash(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

// BcryptHasher is the salted, iterated alternative for fresh deployments.
// Its digests are not readable by LegacyDigest and vice versa.
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: bcrypt hash: %w", err)
	}
	return string(out), nil
}

func (BcryptHasher) Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NewHasher picks an implementation by config name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", "sha256":
		return LegacyDigest{}, nil
	case "bcrypt":
		return BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("auth: unknown password hasher %q", name)
	}
}
