// Package initialpinner implements the Initial Pinner role: receiving a
// Shamir share from the Executor, wrapping it for at-rest storage, and
// persisting it in the blob store (spec.md §4.5).
package initialpinner

import "github.com/tearust/gluon-node/internal/common"

// State is the Initial Pinner task state machine (spec.md §3):
//
//	Init -> Requested -> Deployed
type State int

const (
	Init State = iota
	Requested
	Deployed
)

// StoreItem is InitialPinnerStoreItem (spec.md §3, §4.5).
type StoreItem struct {
	TaskInfo        common.TaskInfo
	State           State
	RSAPubKey       []byte
	MultiSigAccount []byte
	DeploymentID    string
	DataCID         string
}

// NewStoreItem builds the Init-state item created the moment this node
// decides to apply as a candidate (spec.md §4.1).
func NewStoreItem(taskInfo common.TaskInfo, rsaPubKey []byte) *StoreItem {
	return &StoreItem{TaskInfo: taskInfo, State: Init, RSAPubKey: rsaPubKey}
}
