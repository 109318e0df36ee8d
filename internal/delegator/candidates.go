package delegator

import (
	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// luckyNumber is last_byte(id) mod n (spec.md §4.6 step 1).
func luckyNumber(n uint8, id string) uint8 {
	b := []byte(id)
	return b[len(b)-1] % n
}

// selectCandidatePeers is the deterministic sampling of spec.md §4.6:
// expand outward from a task-specific hash bucket until ~2n peers are
// collected or the pool is exhausted. Ported bit-for-bit from
// original_source/src/delegator/key_gen/candidates.rs's
// random_select_peers, whose exact output sizes spec.md §8 pins.
func selectCandidatePeers(ids []string, n uint8, taskID string) []string {
	target := int(2) * int(n)
	if len(ids) < target {
		out := make([]string, len(ids))
		copy(out, ids)
		return out
	}

	lucky := luckyNumber(n, taskID)
	remaining := append([]string(nil), ids...)
	selected := make([]string, 0, target)

	for distance := 0; len(selected) < target && len(remaining) > 0; distance++ {
		next := remaining[:0:0]
		for _, id := range remaining {
			d := int(luckyNumber(n, id)) - int(lucky)
			if d < 0 {
				d = -d
			}
			if d <= distance {
				selected = append(selected, id)
			} else {
				next = append(next, id)
			}
		}
		remaining = next
	}
	return selected
}

// signCandidateRequest builds and Ed25519-signs a
// KeyGenerationCandidateRequest over the bit-exact preimage of spec.md §6.
func signCandidateRequest(signer cryptoport.Ed25519Signer, delegatorPriv []byte, taskID string, n, k uint32, keyType string, delegatorEphemeralID []byte, executor bool) (*wire.KeyGenerationCandidateRequest, error) {
	preimage := common.BuildCandidatePreimage(taskID, n, k, keyType, delegatorEphemeralID, executor)
	sig, err := signer.Sign(delegatorPriv, preimage)
	if err != nil {
		return nil, err
	}
	return &wire.KeyGenerationCandidateRequest{
		TaskID:               taskID,
		N:                    n,
		K:                    k,
		KeyType:              keyType,
		DelegatorEphemeralID: delegatorEphemeralID,
		Executor:             executor,
		Signature:            sig,
	}, nil
}

// sendCandidateRequest signs and sends a candidate invitation to peerID
// (spec.md §4.2 "Candidate invitation").
func sendCandidateRequest(tp transport.Transport, signer cryptoport.Ed25519Signer, delegatorPriv []byte, peerID, taskID string, n, k uint32, keyType string, delegatorEphemeralID []byte, executor bool) error {
	req, err := signCandidateRequest(signer, delegatorPriv, taskID, n, k, keyType, delegatorEphemeralID, executor)
	if err != nil {
		return err
	}
	return tp.Send(peerID, &wire.GeneralMsg{Msg: req})
}
