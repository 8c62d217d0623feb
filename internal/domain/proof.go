package domain

// RoleClaim is the professional role an actor asks the external flow to attest.
type RoleClaim string

const (
	ClaimDoctor                      RoleClaim = "doctor"
	ClaimCommunityHealthPractitioner RoleClaim = "community_health_practitioner"
	ClaimNurseMidwife                RoleClaim = "nurse_midwife"
)

type ClaimData struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Context    string `json:"context"`
	Identifier string `json:"identifier"`
	Owner      string `json:"owner"`
	Epoch      int64  `json:"epoch"`
	TimestampS int64  `json:"timestampS"`
}

type Proof struct {
	ClaimData  ClaimData `json:"claimData"`
	Signatures []string  `json:"signatures"`
}

type VerificationResult struct {
	Proofs []Proof `json:"proofs"`
}

type ClaimInfo struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Context    string `json:"context"`
}

type Claim struct {
	Identifier string `json:"identifier"`
	Owner      string `json:"owner"`
	Epoch      int64  `json:"epoch"`
	TimestampS int64  `json:"timestampS"`
}

type SignedClaim struct {
	Claim      Claim    `json:"claim"`
	Signatures []string `json:"signatures"`
}

// ProofSubmission is the document stored remotely once a proof has been produced.
type ProofSubmission struct {
	ClaimInfo   ClaimInfo   `json:"claimInfo"`
	SignedClaim SignedClaim `json:"signedClaim"`
}

func NewProofSubmission(p Proof) ProofSubmission {
	return ProofSubmission{
		ClaimInfo: ClaimInfo{
			Provider:   p.ClaimData.Provider,
			Parameters: p.ClaimData.Parameters,
			Context:    p.ClaimData.Context,
		},
		SignedClaim: SignedClaim{
			Claim: Claim{
				Identifier: p.ClaimData.Identifier,
				Owner:      p.ClaimData.Owner,
				Epoch:      p.ClaimData.Epoch,
				TimestampS: p.ClaimData.TimestampS,
			},
			Signatures: p.Signatures,
		},
	}
}
