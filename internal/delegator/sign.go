package delegator

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/attestation"
	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// Sign holds the collaborators the sign side of the Delegator role needs.
// It embeds KeyGen's fields by composition rather than inheritance, since
// in Go a second struct sharing Storage/Locks/Transport/etc. is cleaner
// than trying to reuse KeyGen's method set.
type Sign struct {
	*KeyGen
}

// OnSignTransactionRequested is the L1 `SignTransactionRequested` event
// handler (spec.md §4.3 "Admission"). Same nonce-decrypt admission gate as
// key-gen (spec.md §7 kind 2).
func (s *Sign) OnSignTransactionRequested(ev wire.SignTransactionResponse) error {
	unlock := s.Locks.Lock(ev.TaskID)
	defer unlock()

	rsaPriv, err := store.FetchRSAKey(s.Storage, store.PrefixSignRSAKey, ev.TaskID)
	if err != nil {
		return gerrors.NotAddressed(ev.TaskID, err)
	}

	nonce, err := s.Crypto.RSA.Decrypt(rsaPriv, ev.DataAdhoc.DelegatorTeaNonceRSAEncryption)
	if err != nil {
		return gerrors.NotAddressed(ev.TaskID, err)
	}
	sum := sha256.Sum256(nonce)
	if !bytesEqual(sum[:], ev.DataAdhoc.DelegatorTeaNonceHash) {
		return gerrors.NotAddressed(ev.TaskID, errors.New("decrypted nonce hash mismatch"))
	}

	item := NewSignStoreItem(ev.TaskID, nonce)
	item.MultiSigAccount = ev.MultiSigAccount
	item.P1Signature = ev.P1Signature
	item.TransactionData = ev.DataAdhoc.TransactionData

	info, err := s.L1.GetExecutionInfo(ev.MultiSigAccount)
	if err != nil {
		return gerrors.Wrap(gerrors.KindTransport, ev.TaskID, err)
	}
	item.TaskInfo.Exec = common.ExecutionInfo{N: info.N, K: info.K, TaskType: info.KeyType}
	if err := item.TaskInfo.Exec.Validate(); err != nil {
		return gerrors.Wrap(gerrors.KindValidation, ev.TaskID, err)
	}
	item.State = SignInitialized

	if err := s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, ev.TaskID), item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, ev.TaskID, err)
	}

	return s.findDeploymentsAndRecruit(item)
}

// findDeploymentsAndRecruit resolves the multi_sig_account's deployment
// ids, invites an Executor candidate from the delegate pool, and asks the
// attestation subsystem to surface a pinner for each deployment id
// (spec.md §4.3 "Resolution" / "Candidate recruitment"). Executor
// attestation itself is requested later, once a candidate applies and its
// per-task rsa_pub_key is known (see OnTaskSignWithKeySlicesRequest).
func (s *Sign) findDeploymentsAndRecruit(item *SignStoreItem) error {
	depResp, err := s.L1.GetDeploymentIDs(item.MultiSigAccount)
	if err != nil {
		return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
	}
	item.InitDeploymentResources(depResp.AssetInfo.P2DeploymentIDs)
	item.State = SignFindingDeployments

	delResp, err := s.L1.GetDelegates(0, 0)
	if err != nil {
		return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
	}
	for _, del := range delResp.Delegates {
		req := &wire.SignCandidateRequest{TaskID: item.TaskInfo.TaskID, MultiSigAccount: item.MultiSigAccount}
		if err := s.Transport.Send(del.PeerID, &wire.GeneralMsg{Msg: req}); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
		}
	}

	for _, depID := range depResp.AssetInfo.P2DeploymentIDs {
		if err := s.Attestation.FindPinners(depID, map[string]string{
			"task_id":       item.TaskInfo.TaskID,
			"deployment_id": depID,
		}, s.makePinnerCandidateCallback(item.TaskInfo.TaskID)); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
		}
	}

	return s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, item.TaskInfo.TaskID), item, 0)
}

// OnTaskSignWithKeySlicesRequest is a candidate Executor's reply after it
// mints its per-task rsa_pub_key (spec.md §4.3/§4.4 "Apply"). This is the
// point the Delegator routes the candidate into its attestation pipeline,
// carrying rsa_pub_key in the property bag so the eventual Callback's
// ChallengeItem has it populated (spec.md §4.2 line 95, §4.4 line 123).
func (s *Sign) OnTaskSignWithKeySlicesRequest(fromPeerID string, req *wire.TaskSignWithKeySlicesRequest) error {
	unlock := s.Locks.Lock(req.TaskID)
	defer unlock()

	var item SignStoreItem
	if err := s.Storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, req.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}
	if item.State != SignFindingDeployments {
		return gerrors.Wrap(gerrors.KindStateViolation, req.TaskID, errors.Errorf("unexpected apply request in state %d", item.State))
	}

	if err := s.Attestation.RequestApproval(fromPeerID, map[string]string{
		"task_id":     req.TaskID,
		"role":        string(common.RoleExecutor),
		"rsa_pub_key": base64.StdEncoding.EncodeToString(req.RSAPubKey),
	}, s.makeExecutorCandidateCallback(req.TaskID)); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}
	return nil
}

// makeExecutorCandidateCallback elects the first attested Executor
// candidate, then replays any pinner RAs queued while no Executor existed
// yet (spec.md §4.3 "RA arrival ordering").
func (s *Sign) makeExecutorCandidateCallback(taskID string) attestation.Callback {
	return func(ch common.ChallengeItem) {
		unlock := s.Locks.Lock(taskID)
		defer unlock()

		var item SignStoreItem
		if err := s.Storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, taskID), &item); err != nil {
			return
		}
		if item.Executor != nil {
			return // already elected; later RAs for this role are ignored
		}

		peerID, ok := s.Profile(ch.EphemeralID)
		if !ok {
			return
		}
		item.Executor = &common.ExecutorInfo{PeerID: peerID, RSAPubKey: ch.RSAPubKey}

		for depID, peerIDs := range item.PopAllCandidates() {
			for _, pinnerPeerID := range peerIDs {
				req := &wire.TaskSignGetPinnerKeySliceRequest{
					TaskID:       taskID,
					RSAPubKey:    item.Executor.RSAPubKey,
					DeploymentID: depID,
				}
				_ = s.Transport.Send(pinnerPeerID, &wire.GeneralMsg{Msg: req})
			}
		}

		_ = s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, taskID), &item, 0)
	}
}

// makePinnerCandidateCallback handles a pinner's successful attestation: if
// the Executor is already known, ask it directly for the key slice;
// otherwise queue the candidate for replay (spec.md §4.3 "RA arrival
// ordering").
func (s *Sign) makePinnerCandidateCallback(taskID string) attestation.Callback {
	return func(ch common.ChallengeItem) {
		unlock := s.Locks.Lock(taskID)
		defer unlock()

		peerID, ok := s.Profile(ch.EphemeralID)
		if !ok {
			return
		}

		var item SignStoreItem
		if err := s.Storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, taskID), &item); err != nil {
			return
		}
		item.InsertDeployment(ch.DeploymentID)

		if item.Executor == nil {
			item.QueueCandidate(ch.DeploymentID, peerID)
			_ = s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, taskID), &item, 0)
			return
		}

		req := &wire.TaskSignGetPinnerKeySliceRequest{
			TaskID:       taskID,
			RSAPubKey:    item.Executor.RSAPubKey,
			DeploymentID: ch.DeploymentID,
		}
		_ = s.Transport.Send(peerID, &wire.GeneralMsg{Msg: req})

		_ = s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, taskID), &item, 0)
	}
}

// OnTaskSignGetPinnerKeySliceResponse records one pinner's RSA-wrapped
// share; once at least k are collected and the Executor is elected, the
// work is dispatched (spec.md §4.3 "Key-slice collection" / "Dispatch").
func (s *Sign) OnTaskSignGetPinnerKeySliceResponse(fromPeerID string, resp *wire.TaskSignGetPinnerKeySliceResponse) error {
	unlock := s.Locks.Lock(resp.TaskID)
	defer unlock()

	var item SignStoreItem
	if err := s.Storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, resp.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, resp.TaskID, err)
	}

	if !item.InsertKeySliceInfo(resp.DeploymentID, KeySliceInfo{PeerID: fromPeerID, EncryptedKeySlice: resp.EncryptedKeySlice}) {
		return gerrors.Wrap(gerrors.KindStateViolation, resp.TaskID, errors.Errorf("deployment %s already answered", resp.DeploymentID))
	}

	if item.ReadySendToExecutor() && item.State == SignFindingDeployments {
		req := &wire.TaskSignWithKeySlicesResponse{
			TaskID:             resp.TaskID,
			AdhocData:          item.TransactionData,
			P1Signature:        item.P1Signature,
			KeyType:            item.TaskInfo.Exec.TaskType,
			EncryptedKeySlices: item.GetEncryptedKeySlices(),
		}
		if err := s.Transport.Send(item.Executor.PeerID, &wire.GeneralMsg{Msg: req}); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, resp.TaskID, err)
		}
		item.State = SignSentToExecutor
	}

	return s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, resp.TaskID), &item, 0)
}

// OnTaskCommitSignResultRequest verifies the combined witness against the
// multi_sig_account and, if valid, moves the task to SignCommitResult
// (spec.md §4.3 "Commit", DESIGN.md Open Question #2). It makes no
// Layer-1 call and does not broadcast the witness.
func (s *Sign) OnTaskCommitSignResultRequest(req *wire.TaskCommitSignResultRequest) error {
	unlock := s.Locks.Lock(req.TaskID)
	defer unlock()

	var item SignStoreItem
	if err := s.Storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, req.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}
	if item.State != SignSentToExecutor {
		return gerrors.Wrap(gerrors.KindStateViolation, req.TaskID, errors.Errorf("unexpected commit in state %d", item.State))
	}

	ok, err := s.Crypto.Witness.Verify(item.MultiSigAccount, req.Witness, item.TaskInfo.Exec.TaskType)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}
	if !ok {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, errors.New("witness verification failed"))
	}

	item.State = SignCommitResult
	return s.Storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, req.TaskID), &item, 0)
}
