// Package attestation declares the remote-attestation subsystem port
// (spec.md §1): given a peer id and a property bag, it performs an
// attestation exchange and, on success, fires a callback carrying the
// peer's ephemeral id plus the same property bag.
package attestation

import "github.com/tearust/gluon-node/internal/common"

// Callback is invoked once a requested attestation exchange completes
// successfully, delivering the peer's ephemeral id and the property bag
// the challenge carried (spec.md §4.2 "Candidate collection").
type Callback func(item common.ChallengeItem)

// Attestation is the injected attestation subsystem.
type Attestation interface {
	// RequestApproval starts an attestation exchange with peerID, tagged
	// with properties; cb fires on success. Used by the Delegator both to
	// recruit key-gen candidates (§4.2) and sign-time executor candidates
	// (§4.3).
	RequestApproval(peerID string, properties map[string]string, cb Callback) error

	// FindPinners asks the attestation subsystem to surface nodes already
	// holding deploymentID, tagged with properties (§4.3 candidate
	// recruitment "find_pinners").
	FindPinners(deploymentID string, properties map[string]string, cb Callback) error

	// RequestUploadKey asks the attestation subsystem for a session's
	// public RSA key, used by the Initial Pinner to wrap the AES key
	// protecting the blob-stored share (spec.md §4.5 step 4).
	RequestUploadKey(peerID string, cb func(rsaPubKey []byte)) error

	// DataUploadCompleted records a completed upload (cid + wrapped AES
	// key) and returns the deployment id receipt (spec.md §4.5 step 4).
	DataUploadCompleted(cidCode string, keyURLEncoded string) (deploymentID string, err error)

	// CommitDataUpload and UpdateConflictList implement the
	// AssetGenerated side channel (spec.md §4.5 step 5, SPEC_FULL §5).
	CommitDataUpload(deploymentID, dataCID string) error
	UpdateConflictList(multiSigAccount []byte, deploymentIDs []string, currentItems int, maxAllowed int) error
}
