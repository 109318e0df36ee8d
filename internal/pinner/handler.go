// Package pinner implements the Pinner role: answering a sign-time request
// for a Shamir share this node stored as an Initial Pinner in some earlier
// key-gen task (spec.md §4.3 "Key-slice collection", §1 role list).
package pinner

import (
	"github.com/tearust/gluon-node/internal/blobstore"
	"github.com/tearust/gluon-node/internal/cryptoport"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/store"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// Handler holds the collaborators the Pinner role needs.
type Handler struct {
	Storage   store.Storage
	Transport transport.Transport
	Blob      blobstore.BlobStore
	Crypto    cryptoport.Suite
}

// OnTaskSignGetPinnerKeySliceRequest fetches the blob this node stored for
// deploymentID, decrypts it with the AES key it kept at upload time, and
// replies with the share RSA-wrapped under the requesting Executor's
// per-task transport key (spec.md §4.3 "Key-slice collection").
func (h *Handler) OnTaskSignGetPinnerKeySliceRequest(fromPeerID string, req *wire.TaskSignGetPinnerKeySliceRequest) error {
	var cid string
	if err := h.Storage.Get(store.Key(store.PrefixDataCID, req.DeploymentID), &cid); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}
	atRest, err := h.Blob.Get(cid)
	if err != nil {
		return gerrors.Wrap(gerrors.KindTransport, req.TaskID, err)
	}

	var aesKey []byte
	if err := h.Storage.Get(store.Key(store.PrefixPinnerAESKey, req.DeploymentID), &aesKey); err != nil {
		return gerrors.Wrap(gerrors.KindMissingItem, req.TaskID, err)
	}

	share, err := h.Crypto.AES.Decrypt(aesKey, atRest)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}

	rewrapped, err := h.Crypto.RSA.Encrypt(req.RSAPubKey, share)
	if err != nil {
		return gerrors.Wrap(gerrors.KindCrypto, req.TaskID, err)
	}

	reply := &wire.TaskSignGetPinnerKeySliceResponse{
		TaskID:            req.TaskID,
		EncryptedKeySlice: rewrapped,
		DeploymentID:      req.DeploymentID,
	}
	return h.Transport.Send(fromPeerID, &wire.GeneralMsg{Msg: reply})
}
