package defaultcrypto

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Witness implements cryptoport.WitnessCombiner. The exact multi-sig wire
// format for a target blockchain is explicitly a Non-goal (spec.md §1);
// this reference encoding is a simple length-prefixed concatenation of
// the combined signatures with a trailing integrity checksum, just
// enough structure for Verify to catch a corrupted or truncated witness
// before it is committed upstream (Open Question #2 in DESIGN.md).
type Witness struct{}

func (Witness) Combine(k uint8, pubKeys [][]byte, signatures [][]byte, keyType string) ([]byte, error) {
	if len(signatures) == 0 {
		return nil, errors.New("combine witness: no signatures")
	}
	body := encodeWitnessBody(keyType, signatures)
	sum := sha3.Sum256(body)
	return append(body, sum[:]...), nil
}

func (Witness) Verify(account []byte, witness []byte, keyType string) (bool, error) {
	if len(witness) < 32 {
		return false, errors.New("verify witness: too short")
	}
	body, checksum := witness[:len(witness)-32], witness[len(witness)-32:]
	want := sha3.Sum256(body)
	if string(checksum) != string(want[:]) {
		return false, nil
	}
	_, _, err := decodeWitnessBody(body)
	if err != nil {
		return false, err
	}
	return true, nil
}

func encodeWitnessBody(keyType string, signatures [][]byte) []byte {
	var out []byte
	var ktLen [4]byte
	binary.BigEndian.PutUint32(ktLen[:], uint32(len(keyType)))
	out = append(out, ktLen[:]...)
	out = append(out, []byte(keyType)...)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(signatures)))
	out = append(out, count[:]...)
	for _, sig := range signatures {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(sig)))
		out = append(out, l[:]...)
		out = append(out, sig...)
	}
	return out
}

func decodeWitnessBody(body []byte) (keyType string, signatures [][]byte, err error) {
	if len(body) < 4 {
		return "", nil, errors.New("witness body truncated")
	}
	ktLen := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	if uint32(len(body)) < ktLen {
		return "", nil, errors.New("witness body truncated key_type")
	}
	keyType = string(body[:ktLen])
	body = body[ktLen:]

	if len(body) < 4 {
		return "", nil, errors.New("witness body truncated count")
	}
	count := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	signatures = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(body) < 4 {
			return "", nil, errors.New("witness body truncated sig length")
		}
		l := binary.BigEndian.Uint32(body[:4])
		body = body[4:]
		if uint32(len(body)) < l {
			return "", nil, errors.New("witness body truncated sig")
		}
		signatures = append(signatures, body[:l])
		body = body[l:]
	}
	return keyType, signatures, nil
}
