// Package shamir implements (k,n) Shamir secret sharing over GF(p) for a
// fixed 256-bit prime field, used by the Executor to split a generated P2
// private key and by the Executor to recover it from any k shares
// (spec.md Glossary "Shamir split(n,k,s)").
//
// This is a reference implementation only: spec.md lists the
// cryptographic primitives as an external Non-goal, but a real round-trip
// is needed to exercise and test the protocol end to end, and nothing in
// the example corpus ships a ready-made Shamir primitive (see DESIGN.md).
package shamir

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

// fieldPrime is a 256-bit prime, 2^256 - 189, chosen so any 32-byte
// secret (the size of every key type this protocol splits) fits strictly
// below the modulus.
var fieldPrime, _ = new(big.Int).SetString(
	"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff43", 16,
)

// shareEncodingLen is 1 byte for the share's x-coordinate plus 32 bytes
// for its y-coordinate, zero-padded.
const shareEncodingLen = 1 + 32

// Scheme implements cryptoport.ShamirScheme.
type Scheme struct{}

// Split breaks secret into n shares such that any k recover it.
// Accepts 1 <= k <= n (n <= 255 by its uint8 type); the stricter k < n
// task invariant of spec.md §3 is not checked here.
func (Scheme) Split(n, k uint8, secret []byte) ([][]byte, error) {
	if k < 1 || n < k {
		return nil, errors.Errorf("shamir split: invalid k=%d n=%d", k, n)
	}
	s := new(big.Int).SetBytes(secret)
	if s.Cmp(fieldPrime) >= 0 {
		return nil, errors.New("shamir split: secret too large for field")
	}

	// coeffs[0] = secret, coeffs[1..k-1] random; the polynomial of degree
	// k-1 whose constant term is the secret.
	coeffs := make([]*big.Int, k)
	coeffs[0] = s
	for i := 1; i < int(k); i++ {
		c, err := rand.Int(rand.Reader, fieldPrime)
		if err != nil {
			return nil, errors.Wrap(err, "shamir split: random coefficient")
		}
		coeffs[i] = c
	}

	shares := make([][]byte, n)
	for x := 1; x <= int(n); x++ {
		y := evalPoly(coeffs, big.NewInt(int64(x)))
		shares[x-1] = encodeShare(byte(x), y)
	}
	return shares, nil
}

// Recover reconstructs the secret from any k of the n shares via Lagrange
// interpolation at x=0. Extra (non-participating) shares may be passed as
// nil and are skipped.
func (Scheme) Recover(k uint8, shares [][]byte) ([]byte, error) {
	xs := make([]*big.Int, 0, len(shares))
	ys := make([]*big.Int, 0, len(shares))
	for _, raw := range shares {
		if len(raw) == 0 {
			continue
		}
		x, y, err := decodeShare(raw)
		if err != nil {
			return nil, err
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < int(k) {
		return nil, errors.Errorf("shamir recover: need %d shares, got %d", k, len(xs))
	}
	xs, ys = xs[:k], ys[:k]

	secret := big.NewInt(0)
	for i := range xs {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j := range xs {
			if i == j {
				continue
			}
			// num *= -xj ; den *= (xi - xj)
			num.Mul(num, new(big.Int).Neg(xs[j]))
			num.Mod(num, fieldPrime)
			diff := new(big.Int).Sub(xs[i], xs[j])
			den.Mul(den, diff)
			den.Mod(den, fieldPrime)
		}
		denInv := new(big.Int).ModInverse(den, fieldPrime)
		if denInv == nil {
			return nil, errors.New("shamir recover: duplicate x coordinate in shares")
		}
		term := new(big.Int).Mul(ys[i], num)
		term.Mul(term, denInv)
		term.Mod(term, fieldPrime)
		secret.Add(secret, term)
		secret.Mod(secret, fieldPrime)
	}
	return secret.Bytes(), nil
}

func evalPoly(coeffs []*big.Int, x *big.Int) *big.Int {
	result := big.NewInt(0)
	power := big.NewInt(1)
	for _, c := range coeffs {
		term := new(big.Int).Mul(c, power)
		result.Add(result, term)
		result.Mod(result, fieldPrime)
		power.Mul(power, x)
		power.Mod(power, fieldPrime)
	}
	return result
}

func encodeShare(x byte, y *big.Int) []byte {
	out := make([]byte, shareEncodingLen)
	out[0] = x
	yb := y.Bytes()
	copy(out[1+32-len(yb):], yb)
	return out
}

func decodeShare(raw []byte) (x, y *big.Int, err error) {
	if len(raw) != shareEncodingLen {
		return nil, nil, errors.Errorf("shamir: malformed share of length %d", len(raw))
	}
	return big.NewInt(int64(raw[0])), new(big.Int).SetBytes(raw[1:]), nil
}
