package delegator

import (
	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/common"
	"github.com/tearust/gluon-node/internal/config"
)

// KeyGenState is the Delegator key-gen task state machine (spec.md §3):
//
//	Init -> InvitedCandidates -> SentToExecutor -> ReceivedExecutionResult
//	     -> SentToInitialPinner -> ReceivedAllPinnerResponse -> (closed)
type KeyGenState int

const (
	KeyGenInit KeyGenState = iota
	KeyGenInvitedCandidates
	KeyGenSentToExecutor
	KeyGenReceivedExecutionResult
	KeyGenSentToInitialPinner
	KeyGenReceivedAllPinnerResponse
)

// KeyGenStoreItem is DelegatorKeyGenStoreItem (spec.md §3).
type KeyGenStoreItem struct {
	TaskInfo  common.TaskInfo
	State     KeyGenState
	Nonce     []byte
	Executor  *common.ExecutorInfo
	InitialPinners []common.InitialPinnerInfo

	P1PublicKey     []byte
	P2PublicKey     []byte
	MultiSigAccount []byte

	// InitialPinnerResponses is the completeness bitmap: nil value means
	// "not yet responded", non-nil is the deployment id.
	InitialPinnerResponses map[string]*string

	CandidateExecutors      []common.ExecutorInfo
	CandidateInitialPinners []common.InitialPinnerInfo
}

// NewKeyGenStoreItem builds the Init-state item for a just-admitted task.
func NewKeyGenStoreItem(taskInfo common.TaskInfo, nonce, p1PublicKey []byte) *KeyGenStoreItem {
	return &KeyGenStoreItem{
		TaskInfo:               taskInfo,
		State:                  KeyGenInit,
		Nonce:                  nonce,
		P1PublicKey:            p1PublicKey,
		InitialPinnerResponses: make(map[string]*string),
	}
}

// Ready is the election-readiness predicate (spec.md §4.2, §8):
// candidate_executors ≠ ∅ AND
// |candidate_executors| + |candidate_initial_pinners| > n+1.
func (it *KeyGenStoreItem) Ready() bool {
	if len(it.CandidateExecutors) == 0 {
		return false
	}
	return len(it.CandidateExecutors)+len(it.CandidateInitialPinners) > int(it.TaskInfo.Exec.N)+1
}

// InsertCandidateExecutor appends an RA-admitted executor candidate. Per
// spec.md §3 "any RA response in a later state is silently ignored", the
// caller is expected to check State == KeyGenInvitedCandidates first.
func (it *KeyGenStoreItem) InsertCandidateExecutor(e common.ExecutorInfo) {
	it.CandidateExecutors = append(it.CandidateExecutors, e)
}

// InsertCandidateInitialPinner appends an RA-admitted pinner candidate.
func (it *KeyGenStoreItem) InsertCandidateInitialPinner(p common.InitialPinnerInfo) {
	it.CandidateInitialPinners = append(it.CandidateInitialPinners, p)
}

// Elect runs selectExecutor then selectInitialPinners (spec.md §4.2
// "Election").
func (it *KeyGenStoreItem) Elect(rule config.ElectionRule, blockHash, taskHash []byte) error {
	if err := it.selectExecutor(rule, blockHash, taskHash); err != nil {
		return err
	}
	return it.selectInitialPinners()
}

// selectExecutor implements spec.md §9 Open Question #1: the XOR rule is
// the default (min(block_hash ⊕ task_hash ⊕ id)); "pop last" (the literal
// original_source behavior) is kept as a documented alternative. The id
// XORed in is the candidate's transport PeerID: candidates' ephemeral ids
// are not recorded in the store item.
func (it *KeyGenStoreItem) selectExecutor(rule config.ElectionRule, blockHash, taskHash []byte) error {
	if len(it.CandidateExecutors) == 0 {
		return errors.New("candidate executor pool is empty")
	}

	switch rule {
	case config.ElectionPopLast:
		last := it.CandidateExecutors[len(it.CandidateExecutors)-1]
		it.CandidateExecutors = it.CandidateExecutors[:len(it.CandidateExecutors)-1]
		it.Executor = &last
		return nil

	default: // config.ElectionXOR
		bestIdx := -1
		var best []byte
		for i, cand := range it.CandidateExecutors {
			x := xorDigest(blockHash, taskHash, []byte(cand.PeerID))
			if best == nil || lessBytes(x, best) {
				best = x
				bestIdx = i
			}
		}
		chosen := it.CandidateExecutors[bestIdx]
		it.CandidateExecutors = append(it.CandidateExecutors[:bestIdx], it.CandidateExecutors[bestIdx+1:]...)
		it.Executor = &chosen
		return nil
	}
}

// selectInitialPinners drains candidate_initial_pinners into
// InitialPinners until it reaches n, promoting surplus candidate
// executors (type-converted) if the pinner pool runs dry (spec.md §4.2).
func (it *KeyGenStoreItem) selectInitialPinners() error {
	n := int(it.TaskInfo.Exec.N)
	for len(it.InitialPinners) < n {
		if len(it.CandidateInitialPinners) > 0 {
			last := it.CandidateInitialPinners[len(it.CandidateInitialPinners)-1]
			it.CandidateInitialPinners = it.CandidateInitialPinners[:len(it.CandidateInitialPinners)-1]
			it.InitialPinners = append(it.InitialPinners, last)
			continue
		}
		if len(it.CandidateExecutors) > 0 {
			last := it.CandidateExecutors[len(it.CandidateExecutors)-1]
			it.CandidateExecutors = it.CandidateExecutors[:len(it.CandidateExecutors)-1]
			it.InitialPinners = append(it.InitialPinners, last.AsInitialPinner())
			continue
		}
		return errors.Errorf("not enough candidates to elect %d initial pinners (have %d)", n, len(it.InitialPinners))
	}
	return nil
}

// IsAllInitialPinnersReady reports whether every elected pinner has
// responded with a deployment id (spec.md §4.2 "Completion").
func (it *KeyGenStoreItem) IsAllInitialPinnersReady() bool {
	for _, v := range it.InitialPinnerResponses {
		if v == nil {
			return false
		}
	}
	return len(it.InitialPinnerResponses) > 0
}

// DeploymentIDs collects the completed deployment ids, in the iteration
// order of InitialPinnerResponses (map iteration order is not stable
// across runs, but UpdateKeyGenerationResult only needs the set, not an
// order).
func (it *KeyGenStoreItem) DeploymentIDs() []string {
	ids := make([]string, 0, len(it.InitialPinnerResponses))
	for _, v := range it.InitialPinnerResponses {
		if v != nil {
			ids = append(ids, *v)
		}
	}
	return ids
}

func xorDigest(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		if len(p) > n {
			n = len(p)
		}
	}
	out := make([]byte, n)
	for _, p := range parts {
		for i, b := range p {
			out[i] ^= b
		}
	}
	return out
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
