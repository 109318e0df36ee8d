// Package transport declares the P2P transport port (spec.md §1): sending
// a framed message to a peer by id, and a subscription that delivers
// inbound messages tagged with the sender's peer id and an RPC reply
// subject.
package transport

import "github.com/tearust/gluon-node/internal/wire"

// Transport sends a GeneralMsg to a specific peer. The actual framing and
// protobuf encoding is the transport implementation's concern.
type Transport interface {
	Send(peerID string, msg *wire.GeneralMsg) error
}

// Inbound is one message delivered by the transport's subscription.
type Inbound struct {
	FromPeerID string
	ReplyTo    string
	Msg        *wire.GeneralMsg
}

// Handler processes one inbound message and returns its error to the
// caller. No code in this module posts an error reply on ReplyTo.
type Handler func(Inbound) error
