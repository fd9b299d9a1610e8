package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.True(t, CheckPasswordHash("1234", hash))
	assert.False(t, CheckPasswordHash("0000", hash))
	assert.False(t, CheckPasswordHash("1234", "not-a-hash"))
}

func TestRandomToken(t *testing.T) {
	a := RandomToken(16)
	b := RandomToken(16)

	// 16字节十六进制编码后为32个字符
	assert.Len(t, a, 32)
	assert.Len(t, b, 32)
	assert.NotEqual(t, a, b)
}
