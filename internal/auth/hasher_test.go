package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLegacyDigest(t *testing.T) {
	var h LegacyDigest
	digest, err := h.Hash("password")
	require.NoError(t, err)
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", digest)

	again, _ := h.Hash("password")
	assert.Equal(t, digest, again, "unsalted digests are deterministic")

	assert.True(t, h.Verify(digest, "password"))
	assert.False(t, h.Verify(digest, "Password"))
	assert.False(t, h.Verify("", "password"))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	digest, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", digest)
	assert.True(t, h.Verify(digest, "s3cret!"))
	assert.False(t, h.Verify(digest, "nope"))
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("")
	require.NoError(t, err)
	assert.IsType(t, LegacyDigest{}, h)

	h, err = NewHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}
