package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"mt5panel/internal/apperr"
)

// KeySize is the only accepted key length: AES-256.
const KeySize = 32

// Cipher protects broker passwords at rest with AES-256-CBC. Every
// Encrypt call draws a fresh random IV, so equal plaintexts never
// produce equal envelopes. The envelope format is hex(iv) + ":" + hex(ct).
type Cipher struct {
	key []byte
}

// New validates the provisioned key up front; a wrong-sized key must stop
// the process at startup rather than produce ciphertext that can never be
// recovered after the key is fixed.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d", KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Cipher{key: k}, nil
}

// Encrypt returns the envelope for plaintext. The empty string passes
// through unchanged so an unset password stays unset in storage.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. It fails with ErrMalformedEnvelope when the
// envelope shape is wrong and ErrDecryptFailed when the ciphertext does
// not decrypt cleanly under the current key.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	if envelope == "" {
		return "", nil
	}
	ivHex, ctHex, ok := strings.Cut(envelope, ":")
	if !ok {
		return "", apperr.ErrMalformedEnvelope
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", apperr.ErrMalformedEnvelope
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", apperr.ErrMalformedEnvelope
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", apperr.ErrDecryptFailed
	}
	return string(unpadded), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("bad padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("bad padding byte %d", n)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}
