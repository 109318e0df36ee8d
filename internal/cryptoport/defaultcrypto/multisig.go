package defaultcrypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// MultiSig implements cryptoport.MultiSigDeriver. The account id is an
// opaque, deterministic digest of the threshold, key_type and every
// participating public key — exactly the Glossary's "opaque account
// identifier derived from P1/P2 public keys, threshold, and asset type" —
// computed with Keccak (the EVM-family hash many multi-sig account
// schemes use for address derivation).
type MultiSig struct{}

func (MultiSig) DeriveAccount(k uint8, keyType string, pubKeys [][]byte) ([]byte, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(keyType))
	h.Write([]byte{k})
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(pubKeys)))
	h.Write(count[:])
	for _, pk := range pubKeys {
		h.Write(pk)
	}
	return h.Sum(nil), nil
}
