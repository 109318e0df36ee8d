package executor

import (
	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/wire"
)

// Sign holds the collaborators the sign side of the Executor role needs.
type Sign struct {
	*KeyGen
}

// OnSignCandidateRequest mints a per-task RSA transport key and replies
// with TaskSignWithKeySlicesRequest (spec.md §4.3 "Apply"). Unlike
// key-gen, the sign candidate invitation is unsigned (any delegate may
// recruit a sign Executor) — admission is gated upstream by the Delegator's
// own attestation request.
func (s *Sign) OnSignCandidateRequest(fromPeerID string, req *wire.SignCandidateRequest) error {
	rsaPub, rsaPriv, err := s.Crypto.RSA.GenerateKeyPair()
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}
	if err := store.StashRSAKey(s.Storage, store.PrefixSignRSAKey, req.TaskID, rsaPriv); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	item := NewStoreItem(common.TaskInfo{TaskID: req.TaskID}, rsaPub)
	item.State = Requested
	if err := s.Storage.Set(store.Key(store.PrefixExecutorStoreItem, req.TaskID), item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	reply := &wire.TaskSignWithKeySlicesRequest{TaskID: req.TaskID, RSAPubKey: rsaPub}
	return s.Transport.Send(fromPeerID, &wire.GeneralMsg{Msg: reply})
}

// OnTaskSignWithKeySlicesResponse decrypts every delivered share, recovers
// the P2 private key, signs the adhoc data, combines the witness with
// P1's signature, and replies with TaskCommitSignResultRequest (spec.md
// §4.3/§4.4 "Recover and sign").
func (s *Sign) OnTaskSignWithKeySlicesResponse(fromPeerID string, resp *wire.TaskSignWithKeySlicesResponse) error {
	unlock := s.Locks.Lock(resp.TaskID)
	defer unlock()

	var item StoreItem
	if err := s.Storage.Get(store.Key(store.PrefixExecutorStoreItem, resp.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, resp.TaskID, err)
	}
	if item.State != Requested {
		return gerrors.Wrap(gerrors.KindStateViolation, resp.TaskID, errors.Errorf("unexpected sign dispatch in state %d", item.State))
	}

	rsaPriv, err := store.FetchRSAKey(s.Storage, store.PrefixSignRSAKey, resp.TaskID)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, resp.TaskID, err)
	}

	// Every delivered share must decrypt: the real recovery threshold is
	// the task's k, which isn't tracked on this side of the sign path
	// (DESIGN.md Open Question #3 gap, inherited from
	// original_source/src/executor/sign.rs); silently recovering against
	// whatever count survives a bad share would reconstruct a wrong P2
	// private key instead of failing loudly (spec.md §7 kind 5).
	shares := make([][]byte, 0, len(resp.EncryptedKeySlices))
	for _, enc := range resp.EncryptedKeySlices {
		share, err := s.Crypto.RSA.Decrypt(rsaPriv, enc)
		if err != nil {
			return gerrors.Wrap(gerrors.KindCrypto, resp.TaskID, errors.Wrap(err, "decrypt delivered key slice"))
		}
		shares = append(shares, share)
	}

	p2Priv, err := s.Crypto.Shamir.Recover(uint8(len(shares)), shares)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, resp.TaskID, err)
	}

	p2Signature, err := s.Crypto.Signer.Sign(resp.KeyType, p2Priv, resp.AdhocData)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, resp.TaskID, err)
	}

	witness, err := s.Crypto.Witness.Combine(uint8(len(shares)), nil, [][]byte{resp.P1Signature, p2Signature}, resp.KeyType)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, resp.TaskID, err)
	}

	item.State = Responded
	if err := s.Storage.Set(store.Key(store.PrefixExecutorStoreItem, resp.TaskID), &item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, resp.TaskID, err)
	}

	commit := &wire.TaskCommitSignResultRequest{TaskID: resp.TaskID, Witness: witness}
	return s.Transport.Send(fromPeerID, &wire.GeneralMsg{Msg: commit})
}
