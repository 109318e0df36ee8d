package defaultcrypto

import (
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/edwards/v2"
	"github.com/pkg/errors"
)

// Signer implements cryptoport.Signer: it signs adhoc transaction data
// with the recovered P2 private key, keyed by the asset's key_type
// (spec.md §4.4 "sign adhoc_data with P2's private key and key_type").
type Signer struct{}

func (Signer) Sign(keyType string, priv, data []byte) ([]byte, error) {
	digest := (SHA256{}).Sum256(data)

	switch keyType {
	case KeyTypeBitcoinMainnet:
		sk, _ := btcec.PrivKeyFromBytes(priv)
		sig := btcecdsa.Sign(sk, digest[:])
		return sig.Serialize(), nil

	case KeyTypeDecredMainnet:
		curve := edwards.Edwards()
		sk, _ := edwards.PrivKeyFromBytes(curve, priv)
		sig, err := sk.Sign(digest[:])
		if err != nil {
			return nil, errors.Wrap(err, "edwards sign")
		}
		return sig.Serialize(), nil

	default:
		return nil, errors.Errorf("unsupported key_type %q", keyType)
	}
}
