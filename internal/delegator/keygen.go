// Package delegator implements the Delegator role: admitting key-gen and
// sign tasks off Layer-1 events, recruiting and electing candidates over
// the P2P transport, and committing the finished result back to Layer-1
// (spec.md §4.2, §4.3).
package delegator

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/attestation"
	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/config"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/layer1"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// KeyGen holds the collaborators the key-gen side of the Delegator role
// needs: persistence, the per-task lock, the P2P transport, the attestation
// subsystem, the Layer-1 client, crypto primitives, and this node's own
// identity (ephemeral id + Ed25519 private key used to sign candidate
// invitations).
type KeyGen struct {
	Storage     store.Storage
	Locks       *store.TaskLocks
	Transport   transport.Transport
	Attestation attestation.Attestation
	L1          layer1.Client
	Crypto      cryptoport.Suite
	Cfg         *config.Config

	SelfEphemeralID []byte
	SelfPrivateKey  []byte

	// Profile resolves a candidate's ephemeral id to its transport peer id
	// (spec.md §4.1 anti-spoofing check).
	Profile common.ProfileLookup
}

// OnKeyGenerationRequested is the L1 `KeyGenerationRequested` event handler
// (spec.md §4.2 "Admission"). Every delegate node receives the same event;
// only the node whose RSA private key decrypts the admission nonce to a
// hash matching delegator_tea_nonce_hash is addressed — everyone else must
// silently drop it (spec.md §7 kind 2).
func (d *KeyGen) OnKeyGenerationRequested(ev wire.KeyGenerationResponse) error {
	unlock := d.Locks.Lock(ev.TaskID)
	defer unlock()

	rsaPriv, err := store.FetchRSAKey(d.Storage, store.PrefixKeyGenRSAKey, ev.TaskID)
	if err != nil {
		return gerrors.NotAddressed(ev.TaskID, err)
	}

	nonce, err := d.Crypto.RSA.Decrypt(rsaPriv, ev.DataAdhoc.DelegatorTeaNonceRSAEncryption)
	if err != nil {
		return gerrors.NotAddressed(ev.TaskID, err)
	}
	sum := sha256.Sum256(nonce)
	if !bytesEqual(sum[:], ev.DataAdhoc.DelegatorTeaNonceHash) {
		return gerrors.NotAddressed(ev.TaskID, errors.New("decrypted nonce hash mismatch"))
	}

	exec := common.ExecutionInfo{N: ev.DataAdhoc.N, K: ev.DataAdhoc.K, TaskType: ev.DataAdhoc.KeyType}
	if err := exec.Validate(); err != nil {
		return gerrors.Wrap(gerrors.KindValidation, ev.TaskID, err)
	}

	item := NewKeyGenStoreItem(common.TaskInfo{TaskID: ev.TaskID, Exec: exec}, nonce, ev.P1PublicKey)
	if err := d.Storage.Set(store.Key(store.PrefixDelegatorKeyGenStoreItem, ev.TaskID), item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, ev.TaskID, err)
	}

	return d.inviteCandidates(item)
}

// inviteCandidates recruits ~2n peers via get_delegates + selectCandidatePeers
// and sends each a signed KeyGenerationCandidateRequest (spec.md §4.2
// "Candidate invitation", §4.6). Attestation is requested later, once a
// candidate actually applies and its per-task rsa_pub_key is known (see
// OnTaskKeyGenerationApplyRequest) — not at invitation time, since no
// candidate has generated a key yet.
func (d *KeyGen) inviteCandidates(item *KeyGenStoreItem) error {
	resp, err := d.L1.GetDelegates(0, 0)
	if err != nil {
		return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
	}

	ids := make([]string, 0, len(resp.Delegates))
	for _, del := range resp.Delegates {
		ids = append(ids, del.PeerID)
	}
	pool := selectCandidatePeers(ids, item.TaskInfo.Exec.N, item.TaskInfo.TaskID)

	n := uint32(item.TaskInfo.Exec.N)
	k := uint32(item.TaskInfo.Exec.K)
	for _, peerID := range pool {
		if err := sendCandidateRequest(d.Transport, d.Crypto.Ed25519, d.SelfPrivateKey, peerID,
			item.TaskInfo.TaskID, n, k, item.TaskInfo.Exec.TaskType, d.SelfEphemeralID, true); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
		}
	}

	item.State = KeyGenInvitedCandidates
	return d.Storage.Set(store.Key(store.PrefixDelegatorKeyGenStoreItem, item.TaskInfo.TaskID), item, 0)
}

// OnTaskKeyGenerationApplyRequest is a candidate's reply after it decides
// to apply and mints its per-task rsa_pub_key (spec.md §4.4 "Apply"). This
// is the point the Delegator routes the candidate into its attestation
// pipeline, carrying rsa_pub_key in the property bag so the eventual
// Callback's ChallengeItem has it populated (spec.md §4.2 line 95, §4.4
// line 123).
func (d *KeyGen) OnTaskKeyGenerationApplyRequest(fromPeerID string, req *wire.TaskKeyGenerationApplyRequest) error {
	unlock := d.Locks.Lock(req.TaskID)
	defer unlock()

	var item KeyGenStoreItem
	if err := d.Storage.Get(store.Key(store.PrefixDelegatorKeyGenStoreItem, req.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}
	if item.State != KeyGenInvitedCandidates {
		return gerrors.Wrap(gerrors.KindStateViolation, req.TaskID, errors.Errorf("unexpected apply request in state %d", item.State))
	}

	role := common.RoleInitialPinner
	if req.ApplyExecutor {
		role = common.RoleExecutor
	}

	if err := d.Attestation.RequestApproval(fromPeerID, map[string]string{
		"task_id":     req.TaskID,
		"role":        string(role),
		"rsa_pub_key": base64.StdEncoding.EncodeToString(req.RSAPubKey),
	}, d.makeCandidateCallback(req.TaskID)); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}
	return nil
}

// makeCandidateCallback returns the attestation.Callback that feeds a
// successfully-attested candidate into the right pool and, once Ready,
// triggers election (spec.md §4.2 "Candidate collection" / "Election").
func (d *KeyGen) makeCandidateCallback(taskID string) attestation.Callback {
	return func(ch common.ChallengeItem) {
		unlock := d.Locks.Lock(taskID)
		defer unlock()

		var item KeyGenStoreItem
		if err := d.Storage.Get(store.Key(store.PrefixDelegatorKeyGenStoreItem, taskID), &item); err != nil {
			return // KindMissingItem: nothing to do, task already closed or never existed
		}
		if item.State != KeyGenInvitedCandidates {
			return // arrived in the wrong state; silently ignored per spec.md §3
		}

		peerID, ok := d.Profile(ch.EphemeralID)
		if !ok {
			return // cannot resolve a peer id for this candidate; drop it
		}

		switch ch.TargetRole {
		case common.RoleExecutor:
			item.InsertCandidateExecutor(common.ExecutorInfo{PeerID: peerID, RSAPubKey: ch.RSAPubKey})
		case common.RoleInitialPinner:
			item.InsertCandidateInitialPinner(common.InitialPinnerInfo{PeerID: peerID, RSAPubKey: ch.RSAPubKey})
		}

		if item.Ready() {
			_ = d.elect(&item)
		}
		_ = d.Storage.Set(store.Key(store.PrefixDelegatorKeyGenStoreItem, taskID), &item, 0)
	}
}

// elect runs the election and dispatches the TaskExecutionRequest (spec.md
// §4.2 "Dispatch").
func (d *KeyGen) elect(item *KeyGenStoreItem) error {
	blockHash, taskHash := electionSeeds(item.TaskInfo.TaskID)
	if err := item.Elect(d.Cfg.Election, blockHash, taskHash); err != nil {
		return gerrors.Wrap(gerrors.KindStateViolation, item.TaskInfo.TaskID, err)
	}

	pinnerData := make([]*wire.TaskExecutionInitialPinnerData, 0, len(item.InitialPinners))
	for _, p := range item.InitialPinners {
		pinnerData = append(pinnerData, &wire.TaskExecutionInitialPinnerData{PeerID: p.PeerID, RSAPubKey: p.RSAPubKey})
		item.InitialPinnerResponses[p.PeerID] = nil
	}

	req := &wire.TaskExecutionRequest{
		TaskID:                item.TaskInfo.TaskID,
		InitialPinners:        pinnerData,
		MinimumRecoveryNumber: uint32(item.TaskInfo.Exec.K),
		KeyType:               item.TaskInfo.Exec.TaskType,
		P1PublicKey:           item.P1PublicKey,
	}
	if err := d.Transport.Send(item.Executor.PeerID, &wire.GeneralMsg{Msg: req}); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, item.TaskInfo.TaskID, err)
	}
	item.State = KeyGenSentToExecutor
	return nil
}

// OnTaskExecutionResponse handles the elected Executor's key-gen result:
// persist p2_public_key/multi_sig_account, then fan out a
// TaskPinnerKeySliceRequest to each Initial Pinner (spec.md §4.2
// "Fan-out").
func (d *KeyGen) OnTaskExecutionResponse(resp *wire.TaskExecutionResponse) error {
	unlock := d.Locks.Lock(resp.TaskID)
	defer unlock()

	var item KeyGenStoreItem
	if err := d.Storage.Get(store.Key(store.PrefixDelegatorKeyGenStoreItem, resp.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, resp.TaskID, err)
	}
	if item.State != KeyGenSentToExecutor {
		return gerrors.Wrap(gerrors.KindStateViolation, resp.TaskID, errors.Errorf("unexpected execution response in state %d", item.State))
	}

	item.P2PublicKey = resp.P2PublicKey
	item.MultiSigAccount = resp.MultiSigAccount
	item.State = KeyGenReceivedExecutionResult

	for _, pd := range resp.InitialPinners {
		req := &wire.TaskPinnerKeySliceRequest{
			TaskID:            resp.TaskID,
			PublicKey:         item.P2PublicKey,
			EncryptedKeySlice: pd.EncryptedKeySlice,
			MultiSigAccount:   item.MultiSigAccount,
		}
		if err := d.Transport.Send(pd.PeerID, &wire.GeneralMsg{Msg: req}); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, resp.TaskID, err)
		}
	}
	item.State = KeyGenSentToInitialPinner

	return d.Storage.Set(store.Key(store.PrefixDelegatorKeyGenStoreItem, resp.TaskID), &item, 0)
}

// OnTaskPinnerKeySliceResponse records one Initial Pinner's storage
// receipt; once every elected pinner has answered, the result is committed
// to Layer-1 (spec.md §4.2 "Completion").
func (d *KeyGen) OnTaskPinnerKeySliceResponse(fromPeerID string, resp *wire.TaskPinnerKeySliceResponse) error {
	unlock := d.Locks.Lock(resp.TaskID)
	defer unlock()

	var item KeyGenStoreItem
	if err := d.Storage.Get(store.Key(store.PrefixDelegatorKeyGenStoreItem, resp.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, resp.TaskID, err)
	}
	if item.State != KeyGenSentToInitialPinner {
		return gerrors.Wrap(gerrors.KindStateViolation, resp.TaskID, errors.Errorf("unexpected pinner response in state %d", item.State))
	}
	if _, ok := item.InitialPinnerResponses[fromPeerID]; !ok {
		return gerrors.Wrap(gerrors.KindStateViolation, resp.TaskID, errors.Errorf("peer %s is not an elected initial pinner", fromPeerID))
	}

	depID := resp.DeploymentID
	item.InitialPinnerResponses[fromPeerID] = &depID

	if item.IsAllInitialPinnersReady() {
		if err := d.L1.UpdateGenerateKeyResult(wire.UpdateKeyGenerationResult{
			TaskID:          resp.TaskID,
			MultiSigAccount: item.MultiSigAccount,
			P2PublicKey:     item.P2PublicKey,
			DeploymentIDs:   item.DeploymentIDs(),
		}); err != nil {
			return gerrors.Wrap(gerrors.KindTransport, resp.TaskID, err)
		}
		item.State = KeyGenReceivedAllPinnerResponse
	}

	return d.Storage.Set(store.Key(store.PrefixDelegatorKeyGenStoreItem, resp.TaskID), &item, 0)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// electionSeeds derives the block_hash/task_hash XOR inputs (spec.md §9
// Open Question #1). No finalized-block digest is read from the
// Layer1Client, so blockHash is nil and contributes nothing to the XOR;
// task_hash is sha256(task_id), the one value every node can recompute
// identically without an extra RPC.
func electionSeeds(taskID string) (blockHash, taskHash []byte) {
	h := sha256.Sum256([]byte(taskID))
	return nil, h[:]
}
