package delegator

import "github.com/tearust/gluon-node/internal/common"

// SignState is the Delegator sign-task state machine (spec.md §3):
//
//	Init -> Initialized -> FindingDeployments -> SentToExecutor -> CommitResult
type SignState int

const (
	SignInit SignState = iota
	SignInitialized
	SignFindingDeployments
	SignSentToExecutor
	SignCommitResult
)

// KeySliceInfo is one pinner's reply for a single deployment id: nil until
// the pinner (or the queued candidate standing in for it) answers.
type KeySliceInfo struct {
	PeerID            string
	EncryptedKeySlice []byte
}

// SignStoreItem is DelegatorSignStoreItem (spec.md §3, §4.3).
type SignStoreItem struct {
	TaskInfo        common.TaskInfo
	State           SignState
	Nonce           []byte
	Executor        *common.ExecutorInfo
	MultiSigAccount []byte
	P1Signature     []byte
	TransactionData []byte

	// KeySlices maps deployment_id -> reply, nil value meaning "still
	// outstanding" (spec.md §4.3 "Key-slice collection").
	KeySlices map[string]*KeySliceInfo

	// DeploymentCandidates queues pinner RAs that arrive before an
	// Executor is elected, keyed by deployment id (spec.md §4.3 "RA
	// arrival ordering").
	DeploymentCandidates map[string][]string
}

// NewSignStoreItem builds the Init-state item for a just-admitted sign task.
func NewSignStoreItem(taskID string, nonce []byte) *SignStoreItem {
	return &SignStoreItem{
		TaskInfo:              common.TaskInfo{TaskID: taskID},
		State:                 SignInit,
		Nonce:                 nonce,
		KeySlices:             make(map[string]*KeySliceInfo),
		DeploymentCandidates:  make(map[string][]string),
	}
}

// InitDeploymentResources seeds one outstanding slot per known deployment id
// once GetDeploymentIDs resolves them (spec.md §4.3 "Resolution").
func (it *SignStoreItem) InitDeploymentResources(deploymentIDs []string) {
	for _, id := range deploymentIDs {
		if _, ok := it.KeySlices[id]; !ok {
			it.KeySlices[id] = nil
		}
	}
}

// HasFoundKeySlice reports whether deploymentID already has a reply.
func (it *SignStoreItem) HasFoundKeySlice(deploymentID string) bool {
	v, ok := it.KeySlices[deploymentID]
	return ok && v != nil
}

// InsertDeployment registers a not-yet-answered deployment id discovered
// later (e.g. a queued candidate turning out to hold a deployment id the
// initial resolution missed).
func (it *SignStoreItem) InsertDeployment(deploymentID string) {
	if _, ok := it.KeySlices[deploymentID]; !ok {
		it.KeySlices[deploymentID] = nil
	}
}

// InsertKeySliceInfo records a pinner's reply for deploymentID. Returns
// false if that slot was already filled (a duplicate, per spec.md §4.3
// "each deployment id answers at most once").
func (it *SignStoreItem) InsertKeySliceInfo(deploymentID string, info KeySliceInfo) bool {
	if it.HasFoundKeySlice(deploymentID) {
		return false
	}
	it.KeySlices[deploymentID] = &info
	return true
}

// QueueCandidate records a pinner RA that arrived before Executor election,
// to be replayed once the Executor is known (spec.md §4.3 "RA arrival
// ordering").
func (it *SignStoreItem) QueueCandidate(deploymentID, peerID string) {
	it.DeploymentCandidates[deploymentID] = append(it.DeploymentCandidates[deploymentID], peerID)
}

// PopAllCandidates drains and returns every queued (deploymentID, peerID)
// pair, for replay once Executor != nil.
func (it *SignStoreItem) PopAllCandidates() map[string][]string {
	out := it.DeploymentCandidates
	it.DeploymentCandidates = make(map[string][]string)
	return out
}

// filledCount is the number of deployment slots with a reply.
func (it *SignStoreItem) filledCount() int {
	n := 0
	for _, v := range it.KeySlices {
		if v != nil {
			n++
		}
	}
	return n
}

// ReadySendToExecutor is the dispatch-readiness predicate: at least k
// slices collected and an Executor already elected (spec.md §4.3, §8).
func (it *SignStoreItem) ReadySendToExecutor() bool {
	return it.Executor != nil && it.filledCount() >= int(it.TaskInfo.Exec.K)
}

// GetEncryptedKeySlices returns the RSA-wrapped shares for every filled
// slot, in no particular order — the Executor only needs any k of them.
func (it *SignStoreItem) GetEncryptedKeySlices() [][]byte {
	out := make([][]byte, 0, it.filledCount())
	for _, v := range it.KeySlices {
		if v != nil {
			out = append(out, v.EncryptedKeySlice)
		}
	}
	return out
}
