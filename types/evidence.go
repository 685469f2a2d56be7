package types

// EvidenceType identifies the kind of Byzantine behavior.
type EvidenceType uint8

const (
	EvidenceTypeDuplicateVote EvidenceType = 1
	EvidenceTypeLightClient   EvidenceType = 2
)

// String returns the evidence type name.
func (t EvidenceType) String() string {
	switch t {
	case EvidenceTypeDuplicateVote:
		return "duplicate_vote"
	case EvidenceTypeLightClient:
		return "light_client_attack"
	default:
		return "unknown"
	}
}

// Evidence represents proof of Byzantine behavior, already
// verified by the consensus engine.
type Evidence struct {
	Type             EvidenceType `cramberry:"1"`
	Validator        PublicKey    `cramberry:"2"`
	Height           uint64       `cramberry:"3"`
	TotalVotingPower uint64       `cramberry:"4"`
}
