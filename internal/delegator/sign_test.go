package delegator

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/wire"
)

func TestSign_OnSignTransactionRequested_NotAddressedWhenNoStashedKey(t *testing.T) {
	suite := newSuite()
	s := &Sign{KeyGen: &KeyGen{Storage: store.NewMemoryStorage(), Locks: store.NewTaskLocks(), Crypto: suite}}

	err := s.OnSignTransactionRequested(wire.SignTransactionResponse{TaskID: "task-1"})
	assert.Error(t, err)
}

func TestSign_OnSignTransactionRequested_NotAddressedOnNonceHashMismatch(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()

	rsaPub, rsaPriv, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, store.StashRSAKey(storage, store.PrefixSignRSAKey, "task-1", rsaPriv))
	nonce := []byte("a fixed admission nonce value..")
	nonceEnc, err := suite.RSA.Encrypt(rsaPub, nonce)
	require.NoError(t, err)

	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Crypto: suite}}
	err = s.OnSignTransactionRequested(wire.SignTransactionResponse{
		TaskID: "task-1",
		DataAdhoc: wire.SignDataAdhoc{
			DelegatorTeaNonceHash:          []byte("wrong hash entirely, wrong len."),
			DelegatorTeaNonceRSAEncryption: nonceEnc,
		},
	})
	assert.Error(t, err)
}

func TestSign_OnSignTransactionRequested_HappyPathRecruitsAndQueues(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	tp := &fakeTransport{}

	selfPub, selfPriv, err := suite.Ed25519.GenerateKey()
	require.NoError(t, err)

	rsaPub, rsaPriv, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, store.StashRSAKey(storage, store.PrefixSignRSAKey, "task-1", rsaPriv))
	nonce := []byte("a fixed admission nonce value..")
	sum := sha256.Sum256(nonce)
	nonceEnc, err := suite.RSA.Encrypt(rsaPub, nonce)
	require.NoError(t, err)

	// A pinner candidate for deployment "dep-1" attests before any
	// Executor does — PopAllCandidates/QueueCandidate must carry it
	// through to the replay once the Executor callback fires.
	pinnerCh := common.ChallengeItem{TargetRole: common.RolePinner, DeploymentID: "dep-1", RSAPubKey: []byte("pinner-rsa-pub"), EphemeralID: []byte("pinner-eph")}
	execCh := common.ChallengeItem{TargetRole: common.RoleExecutor, RSAPubKey: []byte("exec-rsa-pub"), EphemeralID: []byte("exec-eph")}
	att := &fakeAttestation{challenges: []common.ChallengeItem{execCh}}

	l1 := &recordingL1{delegates: []wire.Delegate{{PeerID: "peer-exec"}}}
	l1.executionInfo = wire.ExecutionInfoResponse{N: 3, K: 2, KeyType: "bitcoin_mainnet"}
	l1.deploymentIDs = []string{"dep-1"}

	profile := func(ephemeralID []byte) (string, bool) { return string(ephemeralID), true }

	s := &Sign{KeyGen: &KeyGen{
		Storage: storage, Locks: store.NewTaskLocks(), Transport: tp,
		Attestation: att, L1: l1, Crypto: suite,
		SelfEphemeralID: selfPub, SelfPrivateKey: selfPriv, Profile: profile,
	}}

	require.NoError(t, s.OnSignTransactionRequested(wire.SignTransactionResponse{
		TaskID: "task-1",
		DataAdhoc: wire.SignDataAdhoc{
			DelegatorTeaNonceHash:          sum[:],
			DelegatorTeaNonceRSAEncryption: nonceEnc,
			TransactionData:                []byte("tx-payload"),
		},
		MultiSigAccount: []byte("multi-sig-account"),
		P1Signature:     []byte("p1-sig"),
	}))

	// The pinner RA lands first and, with no Executor elected yet, queues.
	s.makePinnerCandidateCallback("task-1")(pinnerCh)
	var queued SignStoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), &queued))
	assert.Nil(t, queued.Executor)
	assert.Contains(t, queued.DeploymentCandidates["dep-1"], "pinner-eph")

	// Only once the Executor candidate applies with its minted rsa_pub_key
	// does attestation get requested at all.
	assert.Zero(t, att.approvals)
	require.NoError(t, s.OnTaskSignWithKeySlicesRequest("peer-exec", &wire.TaskSignWithKeySlicesRequest{
		TaskID: "task-1", RSAPubKey: []byte("exec-rsa-pub"),
	}))
	assert.Equal(t, 1, att.approvals)

	// Now the Executor RA fires; makeExecutorCandidateCallback must elect
	// it and replay the queued pinner candidate as a direct key-slice ask.
	att.fire()

	var final SignStoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), &final))
	require.NotNil(t, final.Executor)
	assert.Equal(t, "exec-eph", final.Executor.PeerID)
	assert.Empty(t, final.DeploymentCandidates["dep-1"])

	var sliceReqs []*wire.TaskSignGetPinnerKeySliceRequest
	for _, sent := range tp.sent {
		if req, ok := sent.msg.Msg.(*wire.TaskSignGetPinnerKeySliceRequest); ok {
			sliceReqs = append(sliceReqs, req)
		}
	}
	require.Len(t, sliceReqs, 1)
	assert.Equal(t, "dep-1", sliceReqs[0].DeploymentID)
}

func TestSign_OnTaskSignGetPinnerKeySliceResponse_DuplicateDeploymentRejected(t *testing.T) {
	storage := store.NewMemoryStorage()
	item := NewSignStoreItem("task-1", []byte("nonce"))
	item.TaskInfo.Exec = common.ExecutionInfo{N: 3, K: 2}
	item.State = SignFindingDeployments
	item.Executor = &common.ExecutorInfo{PeerID: "exec-peer"}
	item.InitDeploymentResources([]string{"dep-1", "dep-2"})
	require.True(t, item.InsertKeySliceInfo("dep-1", KeySliceInfo{PeerID: "pinner-1", EncryptedKeySlice: []byte("slice-1")}))
	require.NoError(t, storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), item, 0))

	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Transport: &fakeTransport{}}}
	err := s.OnTaskSignGetPinnerKeySliceResponse("pinner-1-again", &wire.TaskSignGetPinnerKeySliceResponse{TaskID: "task-1", DeploymentID: "dep-1"})
	assert.Error(t, err)
}

func TestSign_OnTaskSignGetPinnerKeySliceResponse_DispatchesOnceKReached(t *testing.T) {
	storage := store.NewMemoryStorage()
	item := NewSignStoreItem("task-1", []byte("nonce"))
	item.TaskInfo.Exec = common.ExecutionInfo{N: 3, K: 2}
	item.State = SignFindingDeployments
	item.Executor = &common.ExecutorInfo{PeerID: "exec-peer"}
	item.TransactionData = []byte("tx-payload")
	item.P1Signature = []byte("p1-sig")
	item.InitDeploymentResources([]string{"dep-1", "dep-2", "dep-3"})
	require.NoError(t, storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), item, 0))

	tp := &fakeTransport{}
	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Transport: tp}}

	require.NoError(t, s.OnTaskSignGetPinnerKeySliceResponse("pinner-1", &wire.TaskSignGetPinnerKeySliceResponse{
		TaskID: "task-1", DeploymentID: "dep-1", EncryptedKeySlice: []byte("slice-1"),
	}))
	assert.Empty(t, tp.sent)

	require.NoError(t, s.OnTaskSignGetPinnerKeySliceResponse("pinner-2", &wire.TaskSignGetPinnerKeySliceResponse{
		TaskID: "task-1", DeploymentID: "dep-2", EncryptedKeySlice: []byte("slice-2"),
	}))
	require.Len(t, tp.sent, 1)
	req, ok := tp.sent[0].msg.Msg.(*wire.TaskSignWithKeySlicesResponse)
	require.True(t, ok)
	assert.ElementsMatch(t, [][]byte{[]byte("slice-1"), []byte("slice-2")}, req.EncryptedKeySlices)

	var updated SignStoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), &updated))
	assert.Equal(t, SignSentToExecutor, updated.State)
}

func TestSign_OnTaskCommitSignResultRequest_HappyPath(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	item := NewSignStoreItem("task-1", []byte("nonce"))
	item.State = SignSentToExecutor
	item.MultiSigAccount = []byte("multi-sig-account")
	item.TaskInfo.Exec.TaskType = "bitcoin_mainnet"
	require.NoError(t, storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), item, 0))

	witness, err := suite.Witness.Combine(1, nil, [][]byte{[]byte("sig-1")}, "bitcoin_mainnet")
	require.NoError(t, err)

	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Crypto: suite}}
	require.NoError(t, s.OnTaskCommitSignResultRequest(&wire.TaskCommitSignResultRequest{TaskID: "task-1", Witness: witness}))

	var updated SignStoreItem
	require.NoError(t, storage.Get(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), &updated))
	assert.Equal(t, SignCommitResult, updated.State)
}

func TestSign_OnTaskCommitSignResultRequest_CorruptedWitnessRejected(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	item := NewSignStoreItem("task-1", []byte("nonce"))
	item.State = SignSentToExecutor
	item.MultiSigAccount = []byte("multi-sig-account")
	require.NoError(t, storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), item, 0))

	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks(), Crypto: suite}}
	err := s.OnTaskCommitSignResultRequest(&wire.TaskCommitSignResultRequest{TaskID: "task-1", Witness: []byte("not a valid witness")})
	assert.Error(t, err)
}

func TestSign_OnTaskCommitSignResultRequest_WrongStateRejected(t *testing.T) {
	storage := store.NewMemoryStorage()
	item := NewSignStoreItem("task-1", []byte("nonce"))
	item.State = SignFindingDeployments
	require.NoError(t, storage.Set(store.Key(store.PrefixDelegatorSignStoreItem, "task-1"), item, 0))

	s := &Sign{KeyGen: &KeyGen{Storage: storage, Locks: store.NewTaskLocks()}}
	err := s.OnTaskCommitSignResultRequest(&wire.TaskCommitSignResultRequest{TaskID: "task-1", Witness: []byte("whatever")})
	assert.Error(t, err)
}
