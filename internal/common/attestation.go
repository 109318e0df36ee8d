package common

// AttestationRole is the role a candidate is attesting for, carried as a
// property on the remote-attestation challenge item (spec §4.2).
type AttestationRole string

const (
	RoleExecutor      AttestationRole = "executor"
	RoleInitialPinner AttestationRole = "initial_pinner"
	RolePinner        AttestationRole = "pinner"
)

// ChallengeItem is the property bag the attestation subsystem hands back
// once a candidate's remote-attestation exchange completes (spec §4.2,
// §1 "attestation service" contract).
type ChallengeItem struct {
	TaskID     string
	RSAPubKey  []byte
	TargetRole AttestationRole
	KeyGenFlag bool
	SignFlag   bool
	// DeploymentID tags a sign-time pinner attestation with the deployment
	// it is offering to serve (spec §4.3 candidate recruitment).
	DeploymentID string
	// EphemeralID identifies the attested candidate for this session; the
	// caller resolves it to a transport peer id via ProfileLookup before
	// sending anything back (spec §4.1 anti-spoofing check).
	EphemeralID []byte
}

// IsKeyGenTag reports whether this challenge item belongs to a key-gen
// task, mirroring original_source's is_key_gen_tag predicate.
func (c ChallengeItem) IsKeyGenTag() bool { return c.KeyGenFlag }

// IsSignTag reports whether this challenge item belongs to a signing
// task, mirroring original_source's is_sign_tag predicate.
func (c ChallengeItem) IsSignTag() bool { return c.SignFlag }

// ProfileLookup resolves an ephemeral id to the long-lived peer id it is
// bound to for this session. Only the Delegator uses it, to address an
// attested candidate; the candidate-side handlers (executor,
// initialpinner) do not check delegator_ephemeral_id against
// from_peer_id.
type ProfileLookup func(ephemeralID []byte) (peerID string, ok bool)
