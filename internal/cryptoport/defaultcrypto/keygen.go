package defaultcrypto

import (
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/edwards/v2"
	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/cryptoport"
)

// Supported key_type values (spec.md §4.4 "P2 keypair of key_type").
const (
	KeyTypeBitcoinMainnet = "bitcoin_mainnet"
	KeyTypeDecredMainnet  = "decred_mainnet"
)

// AssetKeyGen implements cryptoport.AssetKeyGen, generating the P2
// keypair the Executor splits via Shamir. Two curve families are wired
// to exercise both secp256k1 (bitcoin_mainnet, via btcec) and the
// Edwards-over-Koblitz curve decred uses for its EdDSA variant
// (decred_mainnet, via decred's edwards package).
type AssetKeyGen struct{}

func (AssetKeyGen) Generate(keyType string) (cryptoport.KeyPair, error) {
	switch keyType {
	case KeyTypeBitcoinMainnet:
		priv, err := btcec.NewPrivateKey()
		if err != nil {
			return cryptoport.KeyPair{}, errors.Wrap(err, "btcec keygen")
		}
		return cryptoport.KeyPair{
			PublicKey:  priv.PubKey().SerializeCompressed(),
			PrivateKey: priv.Serialize(),
		}, nil

	case KeyTypeDecredMainnet:
		curve := edwards.Edwards()
		priv, _, _, err := edwards.GenerateKey(curve, rand.Reader)
		if err != nil {
			return cryptoport.KeyPair{}, errors.Wrap(err, "edwards keygen")
		}
		return cryptoport.KeyPair{
			PublicKey:  priv.PubKey().Serialize(),
			PrivateKey: priv.Serialize(),
		}, nil

	default:
		return cryptoport.KeyPair{}, errors.Errorf("unsupported key_type %q", keyType)
	}
}
