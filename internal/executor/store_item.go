// Package executor implements the Executor role: the node elected to mint
// a task's asset key (or recover it for signing) and split it into Shamir
// shares for the Initial Pinners (spec.md §4.4).
package executor

import "github.com/tearust/gluon-node/internal/common"

// State is the Executor task state machine (spec.md §3):
//
//	Init -> Requested -> Responded
type State int

const (
	Init State = iota
	Requested
	Responded
)

// StoreItem is ExecutorStoreItem (spec.md §3, §4.4).
type StoreItem struct {
	TaskInfo common.TaskInfo
	State    State

	// RSAPubKey is the per-task transport key minted on candidate apply
	// (spec.md §4.1 "Apply").
	RSAPubKey []byte
}

// NewStoreItem builds the Init-state item created the moment this node
// decides to apply as a candidate (spec.md §4.1).
func NewStoreItem(taskInfo common.TaskInfo, rsaPubKey []byte) *StoreItem {
	return &StoreItem{TaskInfo: taskInfo, State: Init, RSAPubKey: rsaPubKey}
}
