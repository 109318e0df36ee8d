package defaultcrypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"

	"github.com/otiai10/primes"
	"github.com/pkg/errors"
)

const rsaKeyBits = 2048

// RSA implements cryptoport.RSAEnvelope with stdlib crypto/rsa (OAEP),
// keys encoded as PKCS1 DER so they travel on the wire as plain bytes per
// spec.md §3/§4.4 ("the RSA public key is the per-task transport key").
type RSA struct{}

func (RSA) GenerateKeyPair() (pub, priv []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rsa keygen")
	}
	// Sanity-check the generated modulus is built from two values that at
	// least pass a cheap probabilistic primality sieve; a real HSM-backed
	// RSA keygen wouldn't need this, but the reference implementation
	// double-checks since it is also the protocol's test harness.
	if !primes.IsPrime(key.Primes[0]) || !primes.IsPrime(key.Primes[1]) {
		return nil, nil, errors.New("rsa keygen produced a non-prime factor")
	}
	return x509.MarshalPKCS1PublicKey(&key.PublicKey), x509.MarshalPKCS1PrivateKey(key), nil
}

func (RSA) Encrypt(pub, plaintext []byte) ([]byte, error) {
	pk, err := x509.ParsePKCS1PublicKey(pub)
	if err != nil {
		return nil, errors.Wrap(err, "parse rsa public key")
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pk, plaintext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "rsa encrypt")
	}
	return ct, nil
}

func (RSA) Decrypt(priv, ciphertext []byte) ([]byte, error) {
	sk, err := x509.ParsePKCS1PrivateKey(priv)
	if err != nil {
		return nil, errors.Wrap(err, "parse rsa private key")
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, sk, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "rsa decrypt")
	}
	return pt, nil
}
