package wire

// Layer-1 inbound events (spec.md §6).

// KeyGenDataAdhoc carries the admission nonce challenge and threshold
// parameters for a KeyGenerationRequested event.
type KeyGenDataAdhoc struct {
	N                             uint8
	K                             uint8
	KeyType                       string
	DelegatorTeaNonceHash         []byte
	DelegatorTeaNonceRSAEncryption []byte
}

// KeyGenerationResponse is delivered on the L1 `KeyGenerationRequested`
// event (spec.md §6).
type KeyGenerationResponse struct {
	TaskID      string
	DataAdhoc   KeyGenDataAdhoc
	Payment     []byte
	P1PublicKey []byte
}

// SignDataAdhoc carries the admission nonce challenge and the transaction
// payload for a SignTransactionRequested event.
type SignDataAdhoc struct {
	TransactionData                []byte
	DelegatorTeaNonceHash          []byte
	DelegatorTeaNonceRSAEncryption []byte
}

// SignTransactionResponse is delivered on the L1
// `SignTransactionRequested` event (spec.md §6).
type SignTransactionResponse struct {
	TaskID          string
	DataAdhoc       SignDataAdhoc
	Payment         []byte
	P1Signature     []byte
	MultiSigAccount []byte
}

// AssetInfo names the deployment ids an asset's P2 share was split across.
type AssetInfo struct {
	P2DeploymentIDs []string
}

// AssetGeneratedResponse is delivered on the L1 `AssetGenerated` event,
// triggering the conflict-list / commit-data-upload side channel
// (spec.md §4.5 step 5, SPEC_FULL §5).
type AssetGeneratedResponse struct {
	TaskID          string
	MultiSigAccount []byte
	AssetInfo       AssetInfo
}

// Layer-1 outbound RPCs (spec.md §6).

// Delegate is one (tea_id, peer_id) pair returned by get_delegates.
type Delegate struct {
	TeaID  []byte
	PeerID string
}

// GetDelegatesRequest is the get_delegates RPC request.
type GetDelegatesRequest struct {
	Start uint32
	Limit uint32
}

// GetDelegatesResponse is the get_delegates RPC response.
type GetDelegatesResponse struct {
	Delegates []Delegate
}

// GetDeploymentIDsResponse is the get_deployment_ids RPC response.
type GetDeploymentIDsResponse struct {
	AssetInfo AssetInfo
}

// ExecutionInfoResponse answers the (n,k,key_type) lookup by
// multi_sig_account the Delegator sign path needs (DESIGN.md Open
// Question #3).
type ExecutionInfoResponse struct {
	N       uint8
	K       uint8
	KeyType string
}

// UpdateKeyGenerationResult is the payload committed on key-gen
// completion (spec.md §4.2 Completion, §6).
type UpdateKeyGenerationResult struct {
	TaskID          string
	MultiSigAccount []byte
	P2PublicKey     []byte
	DeploymentIDs   []string
}
