// Package common holds the data model shared by every role: TaskInfo and
// the two per-remote-party descriptors (ExecutorInfo, InitialPinnerInfo),
// plus the candidate-request signature preimage used by §4.1 of the
// coordination protocol.
package common

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ExecutionInfo is the (n,k,task_type) triple a task is parameterized by.
// Invariant: 1 <= K < N <= 255.
type ExecutionInfo struct {
	N        uint8
	K        uint8
	TaskType string
}

// Validate checks the 1 <= k < n <= 255 invariant.
func (e ExecutionInfo) Validate() error {
	if e.K < 1 || e.K >= e.N {
		return errors.Errorf("invalid threshold: k=%d n=%d, want 1 <= k < n", e.K, e.N)
	}
	return nil
}

// TaskInfo identifies a task and its threshold parameters. Created when a
// role first accepts a task; immutable thereafter except on the sign side,
// where Exec is resolved from Layer-1 after dispatch.
type TaskInfo struct {
	TaskID string
	Exec   ExecutionInfo
}

// ExecutorInfo is the per-task transport identity of the elected Executor:
// its peer id and the RSA public key it minted for this task only.
type ExecutorInfo struct {
	PeerID    string
	RSAPubKey []byte
}

// InitialPinnerInfo is the per-task transport identity of an elected
// Initial Pinner.
type InitialPinnerInfo struct {
	PeerID    string
	RSAPubKey []byte
}

// AsInitialPinner type-converts a candidate executor into an initial
// pinner, used when the Delegator must promote surplus executor
// candidates into the pinner set (§4.2 Election).
func (e ExecutorInfo) AsInitialPinner() InitialPinnerInfo {
	return InitialPinnerInfo{PeerID: e.PeerID, RSAPubKey: e.RSAPubKey}
}

// BuildCandidatePreimage constructs the bit-exact Ed25519 signature
// preimage for a KeyGenerationCandidateRequest (spec §4.1, §6):
//
//	utf8(task_id) ∥ u32_le(n) ∥ u32_le(k) ∥ utf8(key_type) ∥ bytes(delegator_ephemeral_id) ∥ u8(executor ? 1 : 0)
func BuildCandidatePreimage(taskID string, n, k uint32, keyType string, delegatorEphemeralID []byte, executor bool) []byte {
	buf := make([]byte, 0, len(taskID)+4+4+len(keyType)+len(delegatorEphemeralID)+1)
	buf = append(buf, []byte(taskID)...)

	var nk [8]byte
	binary.LittleEndian.PutUint32(nk[0:4], n)
	binary.LittleEndian.PutUint32(nk[4:8], k)
	buf = append(buf, nk[:]...)

	buf = append(buf, []byte(keyType)...)
	buf = append(buf, delegatorEphemeralID...)

	if executor {
		buf = append(buf, 0x01)
	} else {
		buf = append(buf, 0x00)
	}
	return buf
}
