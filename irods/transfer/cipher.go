package transfer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// frame bounds for the encrypted parallel stream.
// [iv len][iv][cipher len][cipher bytes], both lengths big-endian int32.
const (
	maxCipherFrameLen int = 64 * 1024 * 1024
)

// AESCipher encrypts and decrypts parallel-stream frames with AES-CBC. The
// key is derived once from the negotiated session and is immutable for the
// session's life; every frame carries a fresh IV.
type AESCipher struct {
	key       []byte
	blockSize int
}

// NewAESCipher derives the cipher key from the negotiated session via
// PBKDF2 over the shared secret and the per-session salt
func NewAESCipher(negotiated *types.NegotiatedSession) (*AESCipher, error) {
	if negotiated == nil || len(negotiated.SharedSecret) == 0 {
		return nil, types.NewNegotiationError("no negotiated key material for the parallel-stream cipher")
	}

	keyLen := negotiated.KeySize
	if keyLen != 16 && keyLen != 24 && keyLen != 32 {
		return nil, types.NewNegotiationErrorf("unsupported AES key size %d", keyLen)
	}

	key := pbkdf2.Key(negotiated.SharedSecret, negotiated.Salt, negotiated.HashRounds, keyLen, sha256.New)

	return &AESCipher{
		key:       key,
		blockSize: aes.BlockSize,
	}, nil
}

// Encrypt encrypts a buffer, returning the fresh IV and the ciphertext
func (aesCipher *AESCipher) Encrypt(plain []byte) ([]byte, []byte, error) {
	block, err := aes.NewCipher(aesCipher.key)
	if err != nil {
		return nil, nil, types.NewNegotiationErrorf("failed to init AES cipher: %v", err)
	}

	iv := make([]byte, aesCipher.blockSize)
	_, err = rand.Read(iv)
	if err != nil {
		return nil, nil, types.NewInternalError("failed to generate an initialization vector")
	}

	padded := pkcs7Pad(plain, aesCipher.blockSize)
	encrypted := make([]byte, len(padded))

	encrypter := cipher.NewCBCEncrypter(block, iv)
	encrypter.CryptBlocks(encrypted, padded)

	return iv, encrypted, nil
}

// Decrypt reconstructs the plaintext from the IV and the ciphertext
func (aesCipher *AESCipher) Decrypt(iv []byte, encrypted []byte) ([]byte, error) {
	if len(iv) != aesCipher.blockSize {
		return nil, types.NewWireFormatErrorf("initialization vector length %d does not match block size %d", len(iv), aesCipher.blockSize)
	}

	if len(encrypted) == 0 || len(encrypted)%aesCipher.blockSize != 0 {
		return nil, types.NewWireFormatErrorf("ciphertext length %d is not a positive multiple of block size %d", len(encrypted), aesCipher.blockSize)
	}

	block, err := aes.NewCipher(aesCipher.key)
	if err != nil {
		return nil, types.NewNegotiationErrorf("failed to init AES cipher: %v", err)
	}

	decrypted := make([]byte, len(encrypted))
	decrypter := cipher.NewCBCDecrypter(block, iv)
	decrypter.CryptBlocks(decrypted, encrypted)

	return pkcs7Unpad(decrypted, aesCipher.blockSize)
}

// WriteFrame encrypts and writes one frame: the IV and its length, then the
// ciphertext and its length
func (aesCipher *AESCipher) WriteFrame(writer io.Writer, plain []byte) error {
	iv, encrypted, err := aesCipher.Encrypt(plain)
	if err != nil {
		return err
	}

	lenBuffer := make([]byte, 4)

	binary.BigEndian.PutUint32(lenBuffer, uint32(len(iv)))
	_, err = writer.Write(lenBuffer)
	if err != nil {
		return err
	}

	_, err = writer.Write(iv)
	if err != nil {
		return err
	}

	binary.BigEndian.PutUint32(lenBuffer, uint32(len(encrypted)))
	_, err = writer.Write(lenBuffer)
	if err != nil {
		return err
	}

	_, err = writer.Write(encrypted)
	if err != nil {
		return err
	}

	return nil
}

// ReadFrame reads and decrypts one frame
func (aesCipher *AESCipher) ReadFrame(reader io.Reader) ([]byte, error) {
	lenBuffer := make([]byte, 4)

	_, err := io.ReadFull(reader, lenBuffer)
	if err != nil {
		return nil, err
	}

	ivLen := int(binary.BigEndian.Uint32(lenBuffer))
	if ivLen != aesCipher.blockSize {
		return nil, types.NewWireFormatErrorf("frame declares iv length %d, expected %d", ivLen, aesCipher.blockSize)
	}

	iv := make([]byte, ivLen)
	_, err = io.ReadFull(reader, iv)
	if err != nil {
		return nil, err
	}

	_, err = io.ReadFull(reader, lenBuffer)
	if err != nil {
		return nil, err
	}

	cipherLen := int(binary.BigEndian.Uint32(lenBuffer))
	if cipherLen <= 0 || cipherLen > maxCipherFrameLen || cipherLen%aesCipher.blockSize != 0 {
		return nil, types.NewWireFormatErrorf("frame declares ciphertext length %d", cipherLen)
	}

	encrypted := make([]byte, cipherLen)
	_, err = io.ReadFull(reader, encrypted)
	if err != nil {
		return nil, err
	}

	return aesCipher.Decrypt(iv, encrypted)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, types.NewWireFormatErrorf("padded data length %d is invalid", len(data))
	}

	padLen := int(data[len(data)-1])
	if padLen <= 0 || padLen > blockSize || padLen > len(data) {
		return nil, types.NewWireFormatErrorf("invalid padding length %d", padLen)
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, types.NewWireFormatError("inconsistent padding bytes")
		}
	}

	return data[:len(data)-padLen], nil
}
