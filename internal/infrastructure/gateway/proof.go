package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/totegamma/carelog/internal/domain"
)

type proofFile struct {
	domain.VerificationResult
	Error domain.ProofFailureKind `json:"error,omitempty"`
}

// FileProofSource reads the outcome of the external attestation flow from
// <dir>/<providerID>.json, as exported by the verifier app. The file holds either
// {"proofs":[...]} or {"error":"Cancelled"|"Dismissed"|"SessionExpired"|"Failed"}.
type FileProofSource struct {
	dir string
}

func NewFileProofSource(dir string) *FileProofSource {
	return &FileProofSource{dir: dir}
}

func (s *FileProofSource) Verify(ctx context.Context, providerID string) (domain.VerificationResult, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, providerID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofSessionExpired, Err: fmt.Errorf("no proof for provider %s", providerID)}
		}
		return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofFailed, Err: err}
	}

	var pf proofFile
	if err := json.Unmarshal(b, &pf); err != nil {
		return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofFailed, Err: err}
	}

	switch pf.Error {
	case "":
	case domain.ProofCancelled, domain.ProofDismissed, domain.ProofSessionExpired:
		return domain.VerificationResult{}, domain.ProofFlowError{Kind: pf.Error}
	default:
		return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofFailed, Err: fmt.Errorf("%s", pf.Error)}
	}

	if len(pf.Proofs) == 0 {
		return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofFailed, Err: fmt.Errorf("empty proof set")}
	}
	for _, p := range pf.Proofs {
		if p.ClaimData.Provider != providerID {
			return domain.VerificationResult{}, domain.ProofFlowError{Kind: domain.ProofFailed, Err: fmt.Errorf("proof issued for provider %s", p.ClaimData.Provider)}
		}
	}

	return pf.VerificationResult, nil
}
