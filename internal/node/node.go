// Package node wires the four role handlers together behind a single
// message dispatcher, matching original_source/src/lib.rs's
// handle_message/listen_p2p_message match arms (spec.md §9 "Callback-based
// continuations": message-driven state machines, not threaded callbacks).
package node

import (
	"github.com/pkg/errors"

	"github.com/tearust/gluon-node/internal/delegator"
	"github.com/tearust/gluon-node/internal/executor"
	"github.com/tearust/gluon-node/internal/gerrors"
	"github.com/tearust/gluon-node/internal/initialpinner"
	"github.com/tearust/gluon-node/internal/layer1"
	"github.com/tearust/gluon-node/internal/pinner"
	"github.com/tearust/gluon-node/internal/transport"
	"github.com/tearust/gluon-node/internal/wire"
)

// Node bundles one instance of every role a peer in this network plays
// simultaneously: every node can be a Delegator, Executor, Initial Pinner
// or Pinner depending on which task it is invited into (spec.md §1 "Node
// roles").
type Node struct {
	DelegatorKeyGen *delegator.KeyGen
	DelegatorSign   *delegator.Sign

	ExecutorKeyGen *executor.KeyGen
	ExecutorSign   *executor.Sign

	InitialPinner *initialpinner.Handler
	Pinner        *pinner.Handler

	L1 layer1.Client
}

// Dispatch implements transport.Handler: it type-switches on the inbound
// GeneralMsg's concrete payload and routes to the owning role's handler.
func (n *Node) Dispatch(in transport.Inbound) error {
	if in.Msg == nil {
		return errors.New("node: empty inbound message")
	}

	switch m := in.Msg.Msg.(type) {
	case *wire.KeyGenerationCandidateRequest:
		if m.Executor {
			return n.ExecutorKeyGen.OnKeyGenerationCandidateRequest(in.FromPeerID, m)
		}
		return n.InitialPinner.OnKeyGenerationCandidateRequest(in.FromPeerID, m)

	case *wire.TaskExecutionRequest:
		return n.ExecutorKeyGen.OnTaskExecutionRequest(in.FromPeerID, m)

	case *wire.TaskExecutionResponse:
		return n.DelegatorKeyGen.OnTaskExecutionResponse(m)

	case *wire.TaskPinnerKeySliceRequest:
		return n.InitialPinner.OnTaskPinnerKeySliceRequest(in.FromPeerID, m)

	case *wire.TaskPinnerKeySliceResponse:
		return n.DelegatorKeyGen.OnTaskPinnerKeySliceResponse(in.FromPeerID, m)

	case *wire.SignCandidateRequest:
		return n.ExecutorSign.OnSignCandidateRequest(in.FromPeerID, m)

	case *wire.TaskSignWithKeySlicesRequest:
		return n.DelegatorSign.OnTaskSignWithKeySlicesRequest(in.FromPeerID, m)

	case *wire.TaskSignWithKeySlicesResponse:
		return n.ExecutorSign.OnTaskSignWithKeySlicesResponse(in.FromPeerID, m)

	case *wire.TaskSignGetPinnerKeySliceRequest:
		return n.Pinner.OnTaskSignGetPinnerKeySliceRequest(in.FromPeerID, m)

	case *wire.TaskSignGetPinnerKeySliceResponse:
		return n.DelegatorSign.OnTaskSignGetPinnerKeySliceResponse(in.FromPeerID, m)

	case *wire.TaskCommitSignResultRequest:
		return n.DelegatorSign.OnTaskCommitSignResultRequest(m)

	case *wire.TaskKeyGenerationApplyRequest:
		return n.DelegatorKeyGen.OnTaskKeyGenerationApplyRequest(in.FromPeerID, m)

	case *wire.Rejected:
		return nil // informational only; no state transition at the dispatcher level

	default:
		return gerrors.Wrap(gerrors.KindValidation, "", errors.Errorf("unhandled message type %T", m))
	}
}

// Subscribe registers every Layer-1 event this node reacts to.
func (n *Node) Subscribe() error {
	return n.L1.Subscribe(layer1.EventHandlers{
		OnKeyGenerationRequested: func(ev wire.KeyGenerationResponse) {
			_ = n.DelegatorKeyGen.OnKeyGenerationRequested(ev)
		},
		OnSignTransactionRequested: func(ev wire.SignTransactionResponse) {
			_ = n.DelegatorSign.OnSignTransactionRequested(ev)
		},
		OnAssetGenerated: func(ev wire.AssetGeneratedResponse) {
			_ = n.InitialPinner.OnAssetGenerated(ev, n.L1)
		},
	})
}
