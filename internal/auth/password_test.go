package auth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheapParams = HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

func TestNewSalt_UniqueAndSized(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.False(t, bytes.Equal(a, b))
}

func TestHash_DependsOnSalt(t *testing.T) {
	salt1, _ := NewSalt()
	salt2, _ := NewSalt()

	h1 := cheapParams.Hash("password", salt1)
	h2 := cheapParams.Hash("password", salt2)

	assert.Len(t, h1, 32)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, cheapParams.Hash("password", salt1))
}

func TestVerify(t *testing.T) {
	salt, _ := NewSalt()
	hash := cheapParams.Hash("s3cret", salt)

	assert.True(t, cheapParams.Verify("s3cret", salt, hash))
	assert.False(t, cheapParams.Verify("S3cret", salt, hash))
	assert.False(t, cheapParams.Verify("", salt, hash))

	otherSalt, _ := NewSalt()
	assert.False(t, cheapParams.Verify("s3cret", otherSalt, hash))
}
