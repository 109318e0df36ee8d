// Package defaultcrypto is the reference cryptoport.Suite implementation:
// real, runnable primitives wired to the libraries the example corpus
// imports for this purpose, so the protocol can be exercised end to end
// in tests. Production deployments should supply their own Suite.
package defaultcrypto

import (
	"crypto/rand"

	agled25519 "github.com/agl/ed25519"
	"github.com/pkg/errors"
)

// Ed25519 implements cryptoport.Ed25519Signer with the classic
// github.com/agl/ed25519 package, the Ed25519 implementation the teacher
// repo vendors.
type Ed25519 struct{}

// GenerateKey returns a fresh Ed25519 keypair as (pub[32], priv[64]).
func (Ed25519) GenerateKey() (pub, priv []byte, err error) {
	pk, sk, err := agled25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ed25519 keygen")
	}
	return pk[:], sk[:], nil
}

func (Ed25519) Sign(priv, message []byte) ([]byte, error) {
	if len(priv) != 64 {
		return nil, errors.Errorf("ed25519 private key must be 64 bytes, got %d", len(priv))
	}
	var sk [64]byte
	copy(sk[:], priv)
	sig := agled25519.Sign(&sk, message)
	return sig[:], nil
}

func (Ed25519) Verify(pub, message, signature []byte) bool {
	if len(pub) != 32 || len(signature) != 64 {
		return false
	}
	var pk [32]byte
	var sig [64]byte
	copy(pk[:], pub)
	copy(sig[:], signature)
	return agled25519.Verify(&pk, message, &sig)
}
