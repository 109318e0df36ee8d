// Package cryptoport declares the cryptographic primitives the core
// protocol consumes but does not implement (spec.md §1 Non-goals, §1 "The
// cryptographic primitives"). A reference implementation lives in the
// defaultcrypto subpackage so the protocol can be exercised and tested
// end to end; production deployments are expected to supply their own
// Suite backed by hardened, audited primitives.
package cryptoport

// Ed25519Signer signs and verifies the candidate-request preimage (§4.1).
type Ed25519Signer interface {
	Sign(priv, message []byte) (signature []byte, err error)
	Verify(pub, message, signature []byte) bool
}

// RSAEnvelope wraps/unwraps the per-task transport keys used for key-slice
// transport (§3 "RSA private key stashes", §4.4, §4.5).
type RSAEnvelope interface {
	GenerateKeyPair() (pub, priv []byte, err error)
	Encrypt(pub, plaintext []byte) (ciphertext []byte, err error)
	Decrypt(priv, ciphertext []byte) (plaintext []byte, err error)
}

// AESEnvelope wraps the key slice for at-rest storage with the Initial
// Pinner (§4.5 steps 2-3).
type AESEnvelope interface {
	GenerateKey() (key []byte, err error)
	Encrypt(key, plaintext []byte) (ciphertext []byte, err error)
	Decrypt(key, ciphertext []byte) (plaintext []byte, err error)
}

// Hasher is SHA-256. No caller in this module goes through Suite.Hash:
// the delegator's admission nonce check (§4.2) calls crypto/sha256
// directly, and no witness hash is computed.
type Hasher interface {
	Sum256(data []byte) [32]byte
}

// ShamirScheme splits a P2 private key into n shares with threshold k, and
// recovers it from any k of them (§4.4, Glossary "Shamir split(n,k,s)").
type ShamirScheme interface {
	Split(n, k uint8, secret []byte) (shares [][]byte, err error)
	Recover(k uint8, shares [][]byte) (secret []byte, err error)
}

// KeyPair is a generated P2 keypair for a given key_type.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// AssetKeyGen generates a P2 keypair for the given key_type (§4.4).
type AssetKeyGen interface {
	Generate(keyType string) (KeyPair, error)
}

// MultiSigDeriver derives the opaque multi_sig_account identifier from the
// threshold, asset key_type and the participating public keys (§4.4,
// Glossary "multi_sig_account").
type MultiSigDeriver interface {
	DeriveAccount(k uint8, keyType string, pubKeys [][]byte) (account []byte, err error)
}

// Signer produces a raw signature over adhoc data with a private key of
// the given key_type (§4.4 Sign).
type Signer interface {
	Sign(keyType string, priv, data []byte) (signature []byte, err error)
}

// WitnessCombiner combines P1's and P2's (and optionally P3's) signatures
// into the multi-sig witness artifact committed to the target blockchain,
// and can verify a witness against a multi_sig_account before commit
// (Open Question #2, resolved in DESIGN.md).
type WitnessCombiner interface {
	Combine(k uint8, pubKeys [][]byte, signatures [][]byte, keyType string) (witness []byte, err error)
	Verify(account []byte, witness []byte, keyType string) (bool, error)
}

// Suite bundles every primitive the protocol needs, the single handle
// injected into the delegator/executor/initial-pinner/pinner packages.
type Suite struct {
	Ed25519   Ed25519Signer
	RSA       RSAEnvelope
	AES       AESEnvelope
	Hash      Hasher
	Shamir    ShamirScheme
	KeyGen    AssetKeyGen
	MultiSig  MultiSigDeriver
	Signer    Signer
	Witness   WitnessCombiner
}
