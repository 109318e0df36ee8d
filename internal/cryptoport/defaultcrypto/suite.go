package defaultcrypto

import "github.com/tearust/gluon-node/internal/cryptoport"

// NewSuite wires the reference implementations into a cryptoport.Suite.
func NewSuite() cryptoport.Suite {
	return cryptoport.Suite{
		Ed25519:  Ed25519{},
		RSA:      RSA{},
		AES:      AES{},
		Hash:     SHA256{},
		Shamir:   shamirScheme{},
		KeyGen:   AssetKeyGen{},
		MultiSig: MultiSig{},
		Signer:   Signer{},
		Witness:  Witness{},
	}
}
