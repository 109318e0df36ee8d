package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/cryptoport/defaultcrypto"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/wire"
)

// fakeTransport records every sent message, keyed by recipient peer id.
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

func newSuite() cryptoport.Suite { return defaultcrypto.NewSuite() }

func TestKeyGen_OnKeyGenerationCandidateRequest_SignatureFailure(t *testing.T) {
	suite := newSuite()
	delegatorPub, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	kg := &KeyGen{
		Storage: store.NewMemoryStorage(), Locks: store.NewTaskLocks(),
		Transport: tp, Crypto: suite, DelegatorPubKey: delegatorPub,
	}

	preimage := []byte("some other preimage entirely")
	sig, err := suite.Ed25519.Sign(delegatorPriv, preimage)
	require.NoError(t, err)

	req := &wire.KeyGenerationCandidateRequest{
		TaskID: "task-1", N: 3, K: 2, KeyType: "bitcoin_mainnet",
		DelegatorEphemeralID: []byte("delegator-eph"), Executor: true, Signature: sig,
	}
	err = kg.OnKeyGenerationCandidateRequest("peer-delegator", req)
	assert.Error(t, err)
	assert.Empty(t, tp.sent)
}

func TestKeyGen_OnKeyGenerationCandidateRequest_HappyPath(t *testing.T) {
	suite := newSuite()
	delegatorPub, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	storage := store.NewMemoryStorage()
	kg := &KeyGen{
		Storage: storage, Locks: store.NewTaskLocks(),
		Transport: tp, Crypto: suite, DelegatorPubKey: delegatorPub,
	}

	req := buildCandidateRequest(t, suite, delegatorPriv, "task-1", 3, 2, "bitcoin_mainnet", []byte("delegator-eph"), true)
	require.NoError(t, kg.OnKeyGenerationCandidateRequest("peer-delegator", req))

	require.Len(t, tp.sent, 1)
	apply, ok := tp.sent[0].msg.Msg.(*wire.TaskKeyGenerationApplyRequest)
	require.True(t, ok)
	assert.Equal(t, "task-1", apply.TaskID)
	assert.True(t, apply.ApplyExecutor)
	assert.NotEmpty(t, apply.RSAPubKey)

	var item StoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixExecutorStoreItem, "task-1"), &item))
	assert.Equal(t, Requested, item.State)
}

func TestKeyGen_OnKeyGenerationCandidateRequest_WillingToRunDeclines(t *testing.T) {
	suite := newSuite()
	delegatorPub, delegatorPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	tp := &fakeTransport{}
	storage := store.NewMemoryStorage()
	kg := &KeyGen{
		Storage: storage, Locks: store.NewTaskLocks(),
		Transport: tp, Crypto: suite, DelegatorPubKey: delegatorPub,
		WillingToRun: func(_ common.TaskInfo, _ bool) bool { return false },
	}

	req := buildCandidateRequest(t, suite, delegatorPriv, "task-1", 3, 2, "bitcoin_mainnet", []byte("eph"), true)
	require.NoError(t, kg.OnKeyGenerationCandidateRequest("peer-delegator", req))

	assert.Empty(t, tp.sent)
	var item StoreItem
	assert.ErrorIs(t, storage.Get(store.Key(store.PrefixExecutorStoreItem, "task-1"), &item), store.ErrNotFound)
}

func TestKeyGen_OnTaskExecutionRequest_HappyPath(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	tp := &fakeTransport{}
	kg := &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Transport: tp, Crypto: suite}

	item := NewStoreItem(common.TaskInfo{TaskID: "task-1"}, []byte("executor-rsa-pub"))
	item.State = Requested
	require.NoError(t, storage.Set(store.Key(store.PrefixExecutorStoreItem, "task-1"), item, 0))

	pinnerPub1, pinnerPriv1, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	pinnerPub2, pinnerPriv2, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	pinnerPub3, pinnerPriv3, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)

	p1Pub, _, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	req := &wire.TaskExecutionRequest{
		TaskID: "task-1",
		InitialPinners: []*wire.TaskExecutionInitialPinnerData{
			{PeerID: "pinner-1", RSAPubKey: pinnerPub1},
			{PeerID: "pinner-2", RSAPubKey: pinnerPub2},
			{PeerID: "pinner-3", RSAPubKey: pinnerPub3},
		},
		MinimumRecoveryNumber: 2,
		KeyType:               "bitcoin_mainnet",
		P1PublicKey:           p1Pub,
	}

	require.NoError(t, kg.OnTaskExecutionRequest("peer-executor-caller", req))

	require.Len(t, tp.sent, 1)
	resp, ok := tp.sent[0].msg.Msg.(*wire.TaskExecutionResponse)
	require.True(t, ok)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.NotEmpty(t, resp.P2PublicKey)
	assert.NotEmpty(t, resp.MultiSigAccount)
	require.Len(t, resp.InitialPinners, 3)

	privs := map[string][]byte{"pinner-1": pinnerPriv1, "pinner-2": pinnerPriv2, "pinner-3": pinnerPriv3}
	var shares [][]byte
	for _, pd := range resp.InitialPinners[:2] {
		share, err := suite.RSA.Decrypt(privs[pd.PeerID], pd.EncryptedKeySlice)
		require.NoError(t, err)
		shares = append(shares, share)
	}
	recovered, err := suite.Shamir.Recover(2, shares)
	require.NoError(t, err)
	assert.NotEmpty(t, recovered)

	var updated StoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixExecutorStoreItem, "task-1"), &updated))
	assert.Equal(t, Responded, updated.State)
}

func TestKeyGen_OnTaskExecutionRequest_WrongStateRejected(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	tp := &fakeTransport{}
	kg := &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Transport: tp, Crypto: suite}

	item := NewStoreItem(common.TaskInfo{TaskID: "task-1"}, []byte("pub"))
	item.State = Responded // already responded once
	require.NoError(t, storage.Set(store.Key(store.PrefixExecutorStoreItem, "task-1"), item, 0))

	req := &wire.TaskExecutionRequest{TaskID: "task-1", MinimumRecoveryNumber: 1}
	err := kg.OnTaskExecutionRequest("peer", req)
	assert.Error(t, err)
	assert.Empty(t, tp.sent)
}

func TestKeyGen_OnTaskExecutionRequest_MissingItemFatal(t *testing.T) {
	suite := newSuite()
	kg := &KeyGen{Storage: store.NewMemoryStorage(), Locks: store.NewTaskLocks(), Transport: &fakeTransport{}, Crypto: suite}

	err := kg.OnTaskExecutionRequest("peer", &wire.TaskExecutionRequest{TaskID: "never-requested"})
	assert.Error(t, err)
}

func buildCandidateRequest(t *testing.T, suite cryptoport.Suite, delegatorPriv []byte, taskID string, n, k uint32, keyType string, eph []byte, executor bool) *wire.KeyGenerationCandidateRequest {
	t.Helper()
	preimage := common.BuildCandidatePreimage(taskID, n, k, keyType, eph, executor)
	sig, err := suite.Ed25519.Sign(delegatorPriv, preimage)
	require.NoError(t, err)
	return &wire.KeyGenerationCandidateRequest{
		TaskID: taskID, N: n, K: k, KeyType: keyType,
		DelegatorEphemeralID: eph, Executor: executor, Signature: sig,
	}
}
