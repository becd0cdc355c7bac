package transfer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

func testNegotiatedSession() *types.NegotiatedSession {
	return &types.NegotiatedSession{
		UseSSL:       true,
		SharedSecret: []byte("0123456789abcdef0123456789abcdef"),
		Salt:         []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		Algorithm:    "AES-256-CBC",
		KeySize:      32,
		HashRounds:   16,
	}
}

func TestAESCipherRoundTrip(t *testing.T) {
	cipher, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)

	payloads := [][]byte{
		[]byte("hello, world"),
		bytes.Repeat([]byte{0xab}, 16),  // exactly one block
		bytes.Repeat([]byte{0xcd}, 255), // not block aligned
		{},                              // empty payload pads to one block
	}

	for _, payload := range payloads {
		iv, encrypted, err := cipher.Encrypt(payload)
		assert.NoError(t, err)
		assert.Len(t, iv, 16)
		assert.Equal(t, 0, len(encrypted)%16)

		decrypted, err := cipher.Decrypt(iv, encrypted)
		assert.NoError(t, err)
		assert.Equal(t, payload, decrypted)
	}
}

func TestAESCipherFreshIVPerFrame(t *testing.T) {
	cipher, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)

	payload := []byte("same payload twice")

	iv1, enc1, err := cipher.Encrypt(payload)
	assert.NoError(t, err)
	iv2, enc2, err := cipher.Encrypt(payload)
	assert.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, enc1, enc2)
}

func TestAESCipherKeyDerivationIsDeterministic(t *testing.T) {
	cipher1, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)
	cipher2, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)

	// a frame from one side decrypts on the other
	iv, encrypted, err := cipher1.Encrypt([]byte("cross-cipher payload"))
	assert.NoError(t, err)

	decrypted, err := cipher2.Decrypt(iv, encrypted)
	assert.NoError(t, err)
	assert.Equal(t, []byte("cross-cipher payload"), decrypted)
}

func TestAESCipherFrameRoundTrip(t *testing.T) {
	cipher, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)

	buffer := bytes.Buffer{}
	err = cipher.WriteFrame(&buffer, []byte("framed payload"))
	assert.NoError(t, err)

	decrypted, err := cipher.ReadFrame(&buffer)
	assert.NoError(t, err)
	assert.Equal(t, []byte("framed payload"), decrypted)
}

func TestAESCipherRejectsMismatchedLengths(t *testing.T) {
	cipher, err := NewAESCipher(testNegotiatedSession())
	assert.NoError(t, err)

	// iv with the wrong length
	_, err = cipher.Decrypt(make([]byte, 8), bytes.Repeat([]byte{0x00}, 16))
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))

	// ciphertext not block aligned
	_, err = cipher.Decrypt(make([]byte, 16), bytes.Repeat([]byte{0x00}, 17))
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))

	// frame declaring a bogus iv length
	frame := bytes.Buffer{}
	frame.Write([]byte{0x00, 0x00, 0x00, 0x07})
	frame.Write(bytes.Repeat([]byte{0x00}, 64))
	_, err = cipher.ReadFrame(&frame)
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))
}

func TestAESCipherRejectsBadKeySize(t *testing.T) {
	session := testNegotiatedSession()
	session.KeySize = 13

	_, err := NewAESCipher(session)
	assert.Error(t, err)
	assert.True(t, types.IsNegotiationError(err))
}

func TestPKCS7PaddingEdgeCases(t *testing.T) {
	// block-aligned input grows by a whole padding block
	padded := pkcs7Pad(bytes.Repeat([]byte{0x11}, 32), 16)
	assert.Len(t, padded, 48)

	unpadded, err := pkcs7Unpad(padded, 16)
	assert.NoError(t, err)
	assert.Len(t, unpadded, 32)

	// corrupt padding is rejected
	padded[len(padded)-2] = 0x00
	_, err = pkcs7Unpad(padded, 16)
	assert.Error(t, err)
}
