package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnvHelpers(t *testing.T) {
	assert.Equal(t, "fallback", Env("SURETYX_TEST_UNSET", "fallback"))
	t.Setenv("SURETYX_TEST_STR", "value")
	assert.Equal(t, "value", Env("SURETYX_TEST_STR", "fallback"))

	assert.Equal(t, 7, EnvInt("SURETYX_TEST_UNSET", 7))
	t.Setenv("SURETYX_TEST_INT", "42")
	assert.Equal(t, 42, EnvInt("SURETYX_TEST_INT", 7))
	t.Setenv("SURETYX_TEST_INT", "not-a-number")
	assert.Equal(t, 7, EnvInt("SURETYX_TEST_INT", 7))

	assert.Equal(t, uint64(9), EnvUint64("SURETYX_TEST_UNSET", 9))
	t.Setenv("SURETYX_TEST_U64", "10000000")
	assert.Equal(t, uint64(10_000_000), EnvUint64("SURETYX_TEST_U64", 9))

	assert.False(t, EnvBool("SURETYX_TEST_UNSET", false))
	t.Setenv("SURETYX_TEST_BOOL", "true")
	assert.True(t, EnvBool("SURETYX_TEST_BOOL", false))

	assert.Equal(t, time.Minute, EnvDuration("SURETYX_TEST_UNSET", time.Minute))
	t.Setenv("SURETYX_TEST_DUR", "30s")
	assert.Equal(t, 30*time.Second, EnvDuration("SURETYX_TEST_DUR", time.Minute))
}

func TestHashOrRead(t *testing.T) {
	// Plaintext gets hashed and verifies.
	hash, err := HashOrRead("hunter2")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter2")))

	// An existing bcrypt hash passes through untouched.
	same, err := HashOrRead(string(hash))
	require.NoError(t, err)
	assert.Equal(t, hash, same)
}

func TestDedup(t *testing.T) {
	in := []string{"http://a:3000/", "http://a:3000", "http://b:3000"}
	assert.Equal(t, []string{"http://a:3000", "http://b:3000"}, Dedup(in))
}

func TestBoolToUInt8(t *testing.T) {
	assert.Equal(t, uint8(1), BoolToUInt8(true))
	assert.Equal(t, uint8(0), BoolToUInt8(false))
}
