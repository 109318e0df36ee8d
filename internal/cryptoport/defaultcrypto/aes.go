package defaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
)

// AES implements cryptoport.AESEnvelope with AES-256-GCM, used by the
// Initial Pinner to encrypt a key slice before it is blob-put (§4.5).
type AES struct{}

func (AES) GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, errors.Wrap(err, "aes keygen")
	}
	return key, nil
}

func (AES) Encrypt(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "aes nonce")
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (AES) Decrypt(key, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("aes ciphertext shorter than nonce")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, errors.Wrap(err, "aes decrypt")
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	// Accept any key length by folding it into a 32-byte AES-256 key, so
	// callers (e.g. a Shamir share used directly as a key) don't need to
	// pre-pad.
	sum := sha256.Sum256(key)
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, errors.Wrap(err, "aes new cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "aes new gcm")
	}
	return gcm, nil
}

// SHA256 implements cryptoport.Hasher.
type SHA256 struct{}

func (SHA256) Sum256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
