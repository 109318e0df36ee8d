package initialpinner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tearust/gluon-node/internal/attestation"
	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/config"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/cryptoport/defaultcrypto"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/wire"
)

type fakeTransport struct {
	sent []sentMsg
}

type sentMsg struct {
	peerID string
	msg    *wire.GeneralMsg
}

func (f *fakeTransport) Send(peerID string, msg *wire.GeneralMsg) error {
	f.sent = append(f.sent, sentMsg{peerID, msg})
	return nil
}

type fakeBlob struct {
	data map[string][]byte
	next int
}

func newFakeBlob() *fakeBlob { return &fakeBlob{data: map[string][]byte{}} }

func (b *fakeBlob) Put(data []byte) (string, error) {
	b.next++
	cid := "cid-" + string(rune('a'+b.next))
	b.data[cid] = append([]byte{}, data...)
	return cid, nil
}

func (b *fakeBlob) Get(cid string) ([]byte, error) {
	d, ok := b.data[cid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

type fakeAttestation struct {
	sessionPub  []byte
	deploymentID string
}

func (f *fakeAttestation) RequestApproval(peerID string, properties map[string]string, cb attestation.Callback) error {
	return nil
}

func (f *fakeAttestation) FindPinners(deploymentID string, properties map[string]string, cb attestation.Callback) error {
	return nil
}

func (f *fakeAttestation) RequestUploadKey(peerID string, cb func(rsaPubKey []byte)) error {
	cb(f.sessionPub)
	return nil
}

func (f *fakeAttestation) DataUploadCompleted(cidCode string, keyURLEncoded string) (string, error) {
	return f.deploymentID, nil
}

func (f *fakeAttestation) CommitDataUpload(deploymentID, dataCID string) error { return nil }

func (f *fakeAttestation) UpdateConflictList(multiSigAccount []byte, deploymentIDs []string, currentItems int, maxAllowed int) error {
	return nil
}

func newSuite() cryptoport.Suite { return defaultcrypto.NewSuite() }

func buildSignedRequest(t *testing.T, suite cryptoport.Suite, delegatorPriv []byte, taskID string, executor bool) *wire.KeyGenerationCandidateRequest {
	t.Helper()
	eph := []byte("delegator-eph")
	preimage := common.BuildCandidatePreimage(taskID, 3, 2, "bitcoin_mainnet", eph, executor)
	sig, err := suite.Ed25519.Sign(delegatorPriv, preimage)
	require.NoError(t, err)
	return &wire.KeyGenerationCandidateRequest{
		TaskID: taskID, N: 3, K: 2, KeyType: "bitcoin_mainnet",
		DelegatorEphemeralID: eph, Executor: executor, Signature: sig,
	}
}

func TestHandler_OnKeyGenerationCandidateRequest_IgnoresExecutorInvitations(t *testing.T) {
	suite := newSuite()
	_, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	h := &Handler{Storage: store.NewMemoryStorage(), Locks: store.NewTaskLocks(), Transport: tp, Crypto: suite}

	req := buildSignedRequest(t, suite, delegatorPriv, "task-1", true)
	require.NoError(t, h.OnKeyGenerationCandidateRequest("peer", req))
	assert.Empty(t, tp.sent)
}

func TestHandler_OnKeyGenerationCandidateRequest_ExcludedIfAlreadyExecutor(t *testing.T) {
	suite := newSuite()
	delegatorPub, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	h := &Handler{
		Storage: store.NewMemoryStorage(), Locks: store.NewTaskLocks(), Transport: tp,
		Crypto: suite, DelegatorPubKey: delegatorPub,
		IsExecutorFor: func(taskID string) bool { return taskID == "task-1" },
	}

	req := buildSignedRequest(t, suite, delegatorPriv, "task-1", false)
	require.NoError(t, h.OnKeyGenerationCandidateRequest("peer", req))
	assert.Empty(t, tp.sent)
}

func TestHandler_OnKeyGenerationCandidateRequest_HappyPath(t *testing.T) {
	suite := newSuite()
	delegatorPub, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	storage := store.NewMemoryStorage()
	h := &Handler{
		Storage: storage, Locks: store.NewTaskLocks(), Transport: tp,
		Crypto: suite, DelegatorPubKey: delegatorPub,
		IsExecutorFor: func(string) bool { return false },
	}

	req := buildSignedRequest(t, suite, delegatorPriv, "task-1", false)
	require.NoError(t, h.OnKeyGenerationCandidateRequest("peer-delegator", req))

	require.Len(t, tp.sent, 1)
	apply, ok := tp.sent[0].msg.Msg.(*wire.TaskKeyGenerationApplyRequest)
	require.True(t, ok)
	assert.False(t, apply.ApplyExecutor)

	var item StoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixInitialPinnerStoreItem, "task-1"), &item))
	assert.Equal(t, Requested, item.State)
}

func TestHandler_OnTaskPinnerKeySliceRequest_FullFlow(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	tp := &fakeTransport{}
	blob := newFakeBlob()

	sessionPub, sessionPriv, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	att := &fakeAttestation{sessionPub: sessionPub, deploymentID: "deployment-1"}

	h := &Handler{
		Storage: storage, Locks: store.NewTaskLocks(), Transport: tp,
		Attestation: att, Blob: blob, Crypto: suite,
		Cfg: config.New(),
	}

	item := NewStoreItem(common.TaskInfo{TaskID: "task-1"}, []byte("pinner-rsa-pub"))
	item.State = Requested
	require.NoError(t, storage.Set(store.Key(store.PrefixInitialPinnerStoreItem, "task-1"), item, 0))

	// This node's own per-task RSA keypair, as OnKeyGenerationCandidateRequest
	// would have stashed it; the Executor wraps the share under pinnerPub.
	pinnerPub, pinnerPriv, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, store.StashRSAKey(storage, store.PrefixKeyGenRSAKey, "task-1", pinnerPriv))

	share := []byte("a shamir key slice...............")
	encryptedShare, err := suite.RSA.Encrypt(pinnerPub, share)
	require.NoError(t, err)

	req := &wire.TaskPinnerKeySliceRequest{
		TaskID: "task-1", PublicKey: []byte("p2-pub"),
		EncryptedKeySlice: encryptedShare, MultiSigAccount: []byte("multi-sig-account"),
	}
	require.NoError(t, h.OnTaskPinnerKeySliceRequest("peer-executor", req))

	require.Len(t, tp.sent, 1)
	resp, ok := tp.sent[0].msg.Msg.(*wire.TaskPinnerKeySliceResponse)
	require.True(t, ok)
	assert.Equal(t, "deployment-1", resp.DeploymentID)

	var updated StoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixInitialPinnerStoreItem, "task-1"), &updated))
	assert.Equal(t, Deployed, updated.State)
	assert.Equal(t, "deployment-1", updated.DeploymentID)

	var aesKey []byte
	require.NoError(t, storage.Get(store.Key(store.PrefixPinnerAESKey, "deployment-1"), &aesKey))
	atRest, err := blob.Get(updated.DataCID)
	require.NoError(t, err)
	recoveredShare, err := suite.AES.Decrypt(aesKey, atRest)
	require.NoError(t, err)
	assert.Equal(t, share, recoveredShare)
}
