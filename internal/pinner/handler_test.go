package pinner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type fakeBlob struct{ data map[string][]byte }

func (b *fakeBlob) Put(data []byte) (string, error) {
	return "", assertNever()
}

func (b *fakeBlob) Get(cid string) ([]byte, error) {
	d, ok := b.data[cid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func assertNever() error { panic("Put not exercised by the pinner role") }

func newSuite() cryptoport.Suite { return defaultcrypto.NewSuite() }

func TestHandler_OnTaskSignGetPinnerKeySliceRequest_HappyPath(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	tp := &fakeTransport{}

	share := []byte("the shamir key slice bytes......")
	aesKey, err := suite.AES.GenerateKey()
	require.NoError(t, err)
	atRest, err := suite.AES.Encrypt(aesKey, share)
	require.NoError(t, err)

	blob := &fakeBlob{data: map[string][]byte{"cid-1": atRest}}
	require.NoError(t, storage.Set(store.Key(store.PrefixDataCID, "deployment-1"), "cid-1", 0))
	require.NoError(t, storage.Set(store.Key(store.PrefixPinnerAESKey, "deployment-1"), aesKey, 0))

	h := &Handler{Storage: storage, Transport: tp, Blob: blob, Crypto: suite}

	execPub, execPriv, err := suite.RSA.GenerateKeyPair()
	require.NoError(t, err)

	req := &wire.TaskSignGetPinnerKeySliceRequest{
		TaskID: "task-1", RSAPubKey: execPub, DeploymentID: "deployment-1",
	}
	require.NoError(t, h.OnTaskSignGetPinnerKeySliceRequest("peer-executor", req))

	require.Len(t, tp.sent, 1)
	resp, ok := tp.sent[0].msg.Msg.(*wire.TaskSignGetPinnerKeySliceResponse)
	require.True(t, ok)
	assert.Equal(t, "deployment-1", resp.DeploymentID)

	recovered, err := suite.RSA.Decrypt(execPriv, resp.EncryptedKeySlice)
	require.NoError(t, err)
	assert.Equal(t, share, recovered)
}

func TestHandler_OnTaskSignGetPinnerKeySliceRequest_UnknownDeploymentMissing(t *testing.T) {
	suite := newSuite()
	storage := store.NewMemoryStorage()
	h := &Handler{Storage: storage, Transport: &fakeTransport{}, Blob: &fakeBlob{data: map[string][]byte{}}, Crypto: suite}

	req := &wire.TaskSignGetPinnerKeySliceRequest{TaskID: "task-1", RSAPubKey: []byte("x"), DeploymentID: "never-stored"}
	err := h.OnTaskSignGetPinnerKeySliceRequest("peer", req)
	assert.Error(t, err)
}
