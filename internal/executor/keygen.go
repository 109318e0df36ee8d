package executor

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// KeyGen holds the collaborators the key-gen side of the Executor role
// needs.
type KeyGen struct {
	Storage   store.Storage
	Locks     *store.TaskLocks
	Transport transport.Transport
	Crypto    cryptoport.Suite

	// DelegatorPubKey verifies the Ed25519 signature on every
	// KeyGenerationCandidateRequest (spec.md §4.1).
	DelegatorPubKey []byte

	// WillingToRun decides whether this node accepts a given invitation
	// (capability checks, load shedding); nil means always accept. The
	// bool argument is req.Executor: true for a "run as Executor"
	// invitation, false for "run as Initial Pinner" (spec.md §4.1).
	WillingToRun func(taskInfo common.TaskInfo, applyExecutor bool) bool
}

// OnKeyGenerationCandidateRequest validates the Delegator's signature,
// decides whether to apply, mints a per-task RSA transport key, and
// replies with TaskKeyGenerationApplyRequest (spec.md §4.1 "Apply").
func (k *KeyGen) OnKeyGenerationCandidateRequest(fromPeerID string, req *wire.KeyGenerationCandidateRequest) error {
	preimage := common.BuildCandidatePreimage(req.TaskID, req.N, req.K, req.KeyType, req.DelegatorEphemeralID, req.Executor)
	if !k.Crypto.Ed25519.Verify(k.DelegatorPubKey, preimage, req.Signature) {
		return gerrors.Wrap(gerrors.KindValidation, req.TaskID, errors.New("candidate request signature verification failed"))
	}

	exec := common.ExecutionInfo{N: uint8(req.N), K: uint8(req.K), TaskType: req.KeyType}
	if err := exec.Validate(); err != nil {
		return gerrors.Wrap(gerrors.KindValidation, req.TaskID, err)
	}

	taskInfo := common.TaskInfo{TaskID: req.TaskID, Exec: exec}
	if k.WillingToRun != nil && !k.WillingToRun(taskInfo, req.Executor) {
		return nil
	}

	rsaPub, rsaPriv, err := k.Crypto.RSA.GenerateKeyPair()
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}
	if err := store.StashRSAKey(k.Storage, store.PrefixKeyGenRSAKey, req.TaskID, rsaPriv); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	item := NewStoreItem(taskInfo, rsaPub)
	item.State = Requested
	if err := k.Storage.Set(store.Key(store.PrefixExecutorStoreItem, req.TaskID), item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	reply := &wire.TaskKeyGenerationApplyRequest{
		TaskID:        req.TaskID,
		RSAPubKey:     rsaPub,
		ApplyExecutor: req.Executor,
	}
	return k.Transport.Send(fromPeerID, &wire.GeneralMsg{Msg: reply})
}

// OnTaskExecutionRequest is delivered to the elected Executor: mint the
// asset keypair, Shamir-split the private half, RSA-wrap one share per
// Initial Pinner, derive the multi-sig account, and reply with
// TaskExecutionResponse (spec.md §4.4 "Keypair and split").
func (k *KeyGen) OnTaskExecutionRequest(fromPeerID string, req *wire.TaskExecutionRequest) error {
	unlock := k.Locks.Lock(req.TaskID)
	defer unlock()

	var item StoreItem
	if err := k.Storage.Get(store.Key(store.PrefixExecutorStoreItem, req.TaskID), &item); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}
	if item.State != Requested {
		return gerrors.Wrap(gerrors.KindStateViolation, req.TaskID, errors.Errorf("unexpected execution request in state %d", item.State))
	}

	n := uint8(len(req.InitialPinners))
	k2 := uint8(req.MinimumRecoveryNumber)

	keyPair, err := k.Crypto.KeyGen.Generate(req.KeyType)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}

	shares, err := k.Crypto.Shamir.Split(n, k2, keyPair.PrivateKey)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}
	if len(shares) != len(req.InitialPinners) {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, errors.Errorf("shamir split returned %d shares, want %d", len(shares), len(req.InitialPinners)))
	}

	multiSigAccount, err := k.Crypto.MultiSig.DeriveAccount(k2, req.KeyType, [][]byte{req.P1PublicKey, keyPair.PublicKey})
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}

	pinnerData := make([]*wire.TaskResultInitialPinnerData, len(req.InitialPinners))
	var wrapErrs *multierror.Error
	for i, pinner := range req.InitialPinners {
		encrypted, err := k.Crypto.RSA.Encrypt(pinner.RSAPubKey, shares[i])
		if err != nil {
			wrapErrs = multierror.Append(wrapErrs, errors.Wrapf(err, "wrap share for pinner %s", pinner.PeerID))
			continue
		}
		pinnerData[i] = &wire.TaskResultInitialPinnerData{PeerID: pinner.PeerID, EncryptedKeySlice: encrypted}
	}
	if err := wrapErrs.ErrorOrNil(); err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}

	item.State = Responded
	if err := k.Storage.Set(store.Key(store.PrefixExecutorStoreItem, req.TaskID), &item, 0); err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	resp := &wire.TaskExecutionResponse{
		TaskID:          req.TaskID,
		InitialPinners:  pinnerData,
		P2PublicKey:     keyPair.PublicKey,
		MultiSigAccount: multiSigAccount,
	}
	return k.Transport.Send(fromPeerID, &wire.GeneralMsg{Msg: resp})
}
