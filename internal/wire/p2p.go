// Package wire holds the protobuf message set carried over the P2P
// transport as a GeneralMsg oneof (spec.md §6), plus the Layer-1 inbound
// events and outbound RPC payloads. Every GeneralMsg member implements the
// minimal proto.Message surface (Reset/String/ProtoMessage) and carries
// protobuf struct tags, the shape protoc-gen-go emits; the Layer-1 payloads
// in layer1.go are plain Go structs; the actual wire
// encoding is the injected Transport's concern (spec.md §1 "the
// underlying P2P transport" is out of scope), so these types are passed
// to Transport.Send as plain Go values.
package wire

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Every message below implements the classic three-method proto.Message
// surface that github.com/golang/protobuf's v1 compatibility shim still
// exports, so each type is interchangeable with real protoc-generated
// messages from the caller's point of view.
var (
	_ proto.Message = (*KeyGenerationCandidateRequest)(nil)
	_ proto.Message = (*GeneralMsg)(nil)
)

// KeyGenerationCandidateRequest is the Delegator's invitation to a
// candidate node, §4.1/§6.
type KeyGenerationCandidateRequest struct {
	TaskID               string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	N                    uint32 `protobuf:"varint,2,opt,name=n,proto3"`
	K                    uint32 `protobuf:"varint,3,opt,name=k,proto3"`
	KeyType              string `protobuf:"bytes,4,opt,name=key_type,json=keyType,proto3"`
	DelegatorEphemeralID []byte `protobuf:"bytes,5,opt,name=delegator_ephemeral_id,json=delegatorEphemeralId,proto3"`
	Executor             bool   `protobuf:"varint,6,opt,name=executor,proto3"`
	Signature            []byte `protobuf:"bytes,7,opt,name=signature,proto3"`
}

func (*KeyGenerationCandidateRequest) Reset()         {}
func (m *KeyGenerationCandidateRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*KeyGenerationCandidateRequest) ProtoMessage()  {}
func (*KeyGenerationCandidateRequest) isGeneralMsg()  {}

// TaskKeyGenerationApplyRequest is a candidate's reply after it decides to
// apply (as executor or as initial pinner), §4.4/§6.
type TaskKeyGenerationApplyRequest struct {
	TaskID        string  `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	RSAPubKey     []byte  `protobuf:"bytes,2,opt,name=rsa_pub_key,json=rsaPubKey,proto3"`
	CapDesc       *string `protobuf:"bytes,3,opt,name=cap_desc,json=capDesc,proto3"`
	ApplyExecutor bool    `protobuf:"varint,4,opt,name=apply_executor,json=applyExecutor,proto3"`
}

func (*TaskKeyGenerationApplyRequest) Reset()         {}
func (m *TaskKeyGenerationApplyRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskKeyGenerationApplyRequest) ProtoMessage()  {}
func (*TaskKeyGenerationApplyRequest) isGeneralMsg()  {}

// TaskExecutionInitialPinnerData names one elected initial pinner and the
// per-task RSA transport key the Executor must wrap its share under.
type TaskExecutionInitialPinnerData struct {
	PeerID    string `protobuf:"bytes,1,opt,name=peer_id,json=peerId,proto3"`
	RSAPubKey []byte `protobuf:"bytes,2,opt,name=rsa_pub_key,json=rsaPubKey,proto3"`
}

// TaskExecutionRequest dispatches the elected Executor, §4.2/§6.
type TaskExecutionRequest struct {
	TaskID                string                            `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	InitialPinners         []*TaskExecutionInitialPinnerData `protobuf:"bytes,2,rep,name=initial_pinners,json=initialPinners,proto3"`
	MinimumRecoveryNumber  uint32                            `protobuf:"varint,3,opt,name=minimum_recovery_number,json=minimumRecoveryNumber,proto3"`
	KeyType                string                            `protobuf:"bytes,4,opt,name=key_type,json=keyType,proto3"`
	P1PublicKey            []byte                            `protobuf:"bytes,5,opt,name=p1_public_key,json=p1PublicKey,proto3"`
}

func (*TaskExecutionRequest) Reset()         {}
func (m *TaskExecutionRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskExecutionRequest) ProtoMessage()  {}
func (*TaskExecutionRequest) isGeneralMsg()  {}

// TaskResultInitialPinnerData carries one RSA-wrapped Shamir share back
// to the Delegator for fan-out.
type TaskResultInitialPinnerData struct {
	PeerID             string `protobuf:"bytes,1,opt,name=peer_id,json=peerId,proto3"`
	EncryptedKeySlice  []byte `protobuf:"bytes,2,opt,name=encrypted_key_slice,json=encryptedKeySlice,proto3"`
}

// TaskExecutionResponse is the Executor's key-gen result, §4.4/§6.
type TaskExecutionResponse struct {
	TaskID          string                          `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	InitialPinners  []*TaskResultInitialPinnerData `protobuf:"bytes,2,rep,name=initial_pinners,json=initialPinners,proto3"`
	P2PublicKey     []byte                          `protobuf:"bytes,3,opt,name=p2_public_key,json=p2PublicKey,proto3"`
	MultiSigAccount []byte                          `protobuf:"bytes,4,opt,name=multi_sig_account,json=multiSigAccount,proto3"`
}

func (*TaskExecutionResponse) Reset()         {}
func (m *TaskExecutionResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskExecutionResponse) ProtoMessage()  {}
func (*TaskExecutionResponse) isGeneralMsg()  {}

// TaskPinnerKeySliceRequest hands one elected Initial Pinner its
// RSA-wrapped share to persist, §4.2/§6.
type TaskPinnerKeySliceRequest struct {
	TaskID            string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	PublicKey         []byte `protobuf:"bytes,2,opt,name=public_key,json=publicKey,proto3"`
	EncryptedKeySlice []byte `protobuf:"bytes,3,opt,name=encrypted_key_slice,json=encryptedKeySlice,proto3"`
	MultiSigAccount   []byte `protobuf:"bytes,4,opt,name=multi_sig_account,json=multiSigAccount,proto3"`
}

func (*TaskPinnerKeySliceRequest) Reset()         {}
func (m *TaskPinnerKeySliceRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskPinnerKeySliceRequest) ProtoMessage()  {}
func (*TaskPinnerKeySliceRequest) isGeneralMsg()  {}

// TaskPinnerKeySliceResponse is the storage receipt, §4.5/§6.
type TaskPinnerKeySliceResponse struct {
	TaskID       string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	DeploymentID string `protobuf:"bytes,2,opt,name=deployment_id,json=deploymentId,proto3"`
}

func (*TaskPinnerKeySliceResponse) Reset()         {}
func (m *TaskPinnerKeySliceResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskPinnerKeySliceResponse) ProtoMessage()  {}
func (*TaskPinnerKeySliceResponse) isGeneralMsg()  {}

// SignCandidateRequest invites a candidate Executor to a signing task,
// §4.3/§6.
type SignCandidateRequest struct {
	TaskID          string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	MultiSigAccount []byte `protobuf:"bytes,2,opt,name=multi_sig_account,json=multiSigAccount,proto3"`
}

func (*SignCandidateRequest) Reset()         {}
func (m *SignCandidateRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*SignCandidateRequest) ProtoMessage()  {}
func (*SignCandidateRequest) isGeneralMsg()  {}

// TaskSignWithKeySlicesRequest is the candidate Executor's reply minting
// its per-task RSA transport key, §4.4/§6.
type TaskSignWithKeySlicesRequest struct {
	TaskID    string  `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	RSAPubKey []byte  `protobuf:"bytes,2,opt,name=rsa_pub_key,json=rsaPubKey,proto3"`
	CapDesc   *string `protobuf:"bytes,3,opt,name=cap_desc,json=capDesc,proto3"`
}

func (*TaskSignWithKeySlicesRequest) Reset()         {}
func (m *TaskSignWithKeySlicesRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskSignWithKeySlicesRequest) ProtoMessage()  {}
func (*TaskSignWithKeySlicesRequest) isGeneralMsg()  {}

// TaskSignWithKeySlicesResponse dispatches the elected Executor with
// everything it needs to recover P2 and sign, §4.3/§6.
type TaskSignWithKeySlicesResponse struct {
	TaskID               string   `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	AdhocData            []byte   `protobuf:"bytes,2,opt,name=adhoc_data,json=adhocData,proto3"`
	P1Signature          []byte   `protobuf:"bytes,3,opt,name=p1_signature,json=p1Signature,proto3"`
	KeyType              string   `protobuf:"bytes,4,opt,name=key_type,json=keyType,proto3"`
	EncryptedKeySlices   [][]byte `protobuf:"bytes,5,rep,name=encrypted_key_slices,json=encryptedKeySlices,proto3"`
}

func (*TaskSignWithKeySlicesResponse) Reset()         {}
func (m *TaskSignWithKeySlicesResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskSignWithKeySlicesResponse) ProtoMessage()  {}
func (*TaskSignWithKeySlicesResponse) isGeneralMsg()  {}

// TaskSignGetPinnerKeySliceRequest asks a (possibly queued) pinner for
// its share at sign time, §4.3/§6.
type TaskSignGetPinnerKeySliceRequest struct {
	TaskID       string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	RSAPubKey    []byte `protobuf:"bytes,2,opt,name=rsa_pub_key,json=rsaPubKey,proto3"`
	DeploymentID string `protobuf:"bytes,3,opt,name=deployment_id,json=deploymentId,proto3"`
}

func (*TaskSignGetPinnerKeySliceRequest) Reset()         {}
func (m *TaskSignGetPinnerKeySliceRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskSignGetPinnerKeySliceRequest) ProtoMessage()  {}
func (*TaskSignGetPinnerKeySliceRequest) isGeneralMsg()  {}

// TaskSignGetPinnerKeySliceResponse carries the RSA-wrapped share back,
// §4.3/§6.
type TaskSignGetPinnerKeySliceResponse struct {
	TaskID            string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	EncryptedKeySlice []byte `protobuf:"bytes,2,opt,name=encrypted_key_slice,json=encryptedKeySlice,proto3"`
	DeploymentID      string `protobuf:"bytes,3,opt,name=deployment_id,json=deploymentId,proto3"`
}

func (*TaskSignGetPinnerKeySliceResponse) Reset()         {}
func (m *TaskSignGetPinnerKeySliceResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskSignGetPinnerKeySliceResponse) ProtoMessage()  {}
func (*TaskSignGetPinnerKeySliceResponse) isGeneralMsg()  {}

// TaskCommitSignResultRequest carries the combined witness to the
// Delegator for upstream commit, §4.3/§6.
type TaskCommitSignResultRequest struct {
	TaskID  string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	Witness []byte `protobuf:"bytes,2,opt,name=witness,proto3"`
}

func (*TaskCommitSignResultRequest) Reset()         {}
func (m *TaskCommitSignResultRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*TaskCommitSignResultRequest) ProtoMessage()  {}
func (*TaskCommitSignResultRequest) isGeneralMsg()  {}

// Rejected is the textual state-violation reply of spec.md §7 kind 3.
type Rejected struct {
	TaskID string `protobuf:"bytes,1,opt,name=task_id,json=taskId,proto3"`
	Reason string `protobuf:"bytes,2,opt,name=reason,proto3"`
}

func (*Rejected) Reset()         {}
func (m *Rejected) String() string { return fmt.Sprintf("%+v", *m) }
func (*Rejected) ProtoMessage()  {}
func (*Rejected) isGeneralMsg()  {}

// isGeneralMsgField is the oneof marker interface every member of the
// P2P GeneralMsg envelope implements, mirroring protoc-gen-go's oneof
// wrapper-type pattern.
type isGeneralMsgField interface {
	isGeneralMsg()
}

// GeneralMsg is the single oneof envelope every message in §6 travels
// inside, matching original_source/src/lib.rs's general_msg::Msg match.
type GeneralMsg struct {
	Msg isGeneralMsgField
}

func (*GeneralMsg) Reset()         {}
func (m *GeneralMsg) String() string { return fmt.Sprintf("%+v", m.Msg) }
func (*GeneralMsg) ProtoMessage()  {}
