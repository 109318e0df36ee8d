// Package layer1 declares the Layer-1 blockchain event bus and reply RPC
// port (spec.md §1, §6).
package layer1

import "github.com/tearust/gluon-node/internal/wire"

// EventHandlers are invoked when the corresponding L1 event fires.
type EventHandlers struct {
	OnKeyGenerationRequested  func(wire.KeyGenerationResponse)
	OnSignTransactionRequested func(wire.SignTransactionResponse)
	OnAssetGenerated          func(wire.AssetGeneratedResponse)
}

// Client is the injected Layer-1 collaborator: event subscription plus
// the reply RPCs the Delegator calls (spec.md §6).
type Client interface {
	Subscribe(h EventHandlers) error

	GetDelegates(start, limit uint32) (wire.GetDelegatesResponse, error)
	GetDeploymentIDs(multiSigAccount []byte) (wire.GetDeploymentIDsResponse, error)
	// GetExecutionInfo resolves (n,k,key_type) from a multi_sig_account,
	// the lookup spec.md §4.3/§9 leaves as a TODO (DESIGN.md Open
	// Question #3).
	GetExecutionInfo(multiSigAccount []byte) (wire.ExecutionInfoResponse, error)
	UpdateGenerateKeyResult(result wire.UpdateKeyGenerationResult) error
}
