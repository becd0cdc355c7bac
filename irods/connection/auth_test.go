package connection

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAuthResponse(t *testing.T) {
	challenge := make([]byte, 64)
	for i := range challenge {
		challenge[i] = byte(i)
	}

	response := GenerateAuthResponse(challenge, "rods")

	// the response is the base64 of a 16-byte digest
	decoded, err := base64.StdEncoding.DecodeString(response)
	assert.NoError(t, err)
	assert.Len(t, decoded, 16)

	// zero bytes are anonymized, the server parses the digest as a C string
	for _, b := range decoded {
		assert.NotEqual(t, byte(0), b)
	}

	// deterministic for the same inputs
	assert.Equal(t, response, GenerateAuthResponse(challenge, "rods"))

	// sensitive to the password
	assert.NotEqual(t, response, GenerateAuthResponse(challenge, "wrong"))

	// sensitive to the challenge
	otherChallenge := make([]byte, 64)
	copy(otherChallenge, challenge)
	otherChallenge[0] = 0xff
	assert.NotEqual(t, response, GenerateAuthResponse(otherChallenge, "rods"))
}

func TestGenerateAuthResponseLongPassword(t *testing.T) {
	challenge := make([]byte, 64)

	// only the first 50 password bytes participate
	prefix := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 50 chars
	assert.Equal(t,
		GenerateAuthResponse(challenge, prefix+"tail-one"),
		GenerateAuthResponse(challenge, prefix+"tail-two"))

	// a difference within the first 50 bytes changes the response
	assert.NotEqual(t,
		GenerateAuthResponse(challenge, prefix),
		GenerateAuthResponse(challenge, "b"+prefix[1:]))
}

func TestGenerateAuthResponseOversizedChallenge(t *testing.T) {
	challenge := make([]byte, 64)
	oversized := make([]byte, 128)
	copy(oversized, challenge)

	// only the first 64 challenge bytes participate
	assert.Equal(t,
		GenerateAuthResponse(challenge, "rods"),
		GenerateAuthResponse(oversized, "rods"))
}
