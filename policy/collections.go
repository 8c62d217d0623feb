package policy

import (
	"fmt"

	"github.com/totegamma/carelog/schemas"
)

const (
	CurrentVersion = "2024-01-01"
	ActionSet      = "set"
)

func load(key string) Expr {
	return Expr{Operator: "Load", Args: []Expr{{Const: key}}}
}

var ownerIsRequester = Expr{
	Operator: "Eq",
	Args:     []Expr{load("requester"), load("document.owner")},
}

var requesterIsAdmin = Expr{
	Operator: "Contains",
	Args:     []Expr{load("params.admins"), load("requester")},
}

var requesterHasLicense = Expr{
	Operator: "Eq",
	Args:     []Expr{load("params.hasLicense"), {Const: true}},
}

func single(name, description string, condition Expr) PolicyDocument {
	return PolicyDocument{
		Name:        name,
		Description: description,
		Versions: map[string]Policy{
			CurrentVersion: {
				Statements: map[string][]Stmt{
					ActionSet: {{Emit: "allow", Condition: condition}},
				},
				Defaults: map[string]bool{ActionSet: false},
			},
		},
	}
}

// Collections holds the write policy of every collection the store accepts.
var Collections = map[string]PolicyDocument{
	schemas.CollectionRoles:            single("roles", "role assignments are written by admins", requesterIsAdmin),
	schemas.CollectionProfiles:         single("profiles", "healthcare worker profiles are written by admins", requesterIsAdmin),
	schemas.CollectionLinkage:          single("linkage", "a patient links only their own identity", ownerIsRequester),
	schemas.CollectionLicenseProofs:    single("license proofs", "proofs are submitted by their subject", ownerIsRequester),
	schemas.CollectionAntenatalLogs:    single("antenatal logs", "device logs live under their author", ownerIsRequester),
	schemas.CollectionImmunizationLogs: single("immunization logs", "device logs live under their author", ownerIsRequester),
	schemas.CollectionHealthRecords:    single("health records", "shared records need a verified license", requesterHasLicense),
}

// Allowed decides action on collection for ctx. Unknown collections are rejected.
func Allowed(collection, action string, ctx RequestContext) (bool, error) {
	doc, ok := Collections[collection]
	if !ok {
		return false, fmt.Errorf("no policy for collection %s", collection)
	}

	conclusion, err := EvaluatePolicy(doc, ctx, action)
	if err != nil {
		return false, err
	}
	return Summarize([]Conclusion{conclusion}, doc.Versions[CurrentVersion].Defaults[action]), nil
}
