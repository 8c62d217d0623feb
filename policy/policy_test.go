package policy

import (
	"testing"

	"github.com/totegamma/carelog/schemas"
)

func TestEvalLoadsContext(t *testing.T) {
	ctx := RequestContext{
		Requester: "xion1alice",
		Document:  DocumentRef{Owner: "xion1alice", Collection: "antenatal_logs", ID: "e1"},
		Params: map[string]any{
			"device": map[string]any{"role": "admin"},
		},
	}

	cases := []struct {
		expr Expr
		want any
	}{
		{Expr{Operator: "Eq", Args: []Expr{load("params.device.role"), {Const: "admin"}}}, true},
		{Expr{Operator: "Eq", Args: []Expr{load("requester"), load("document.owner")}}, true},
		{Expr{Operator: "Not", Args: []Expr{{Operator: "Eq", Args: []Expr{load("document.id"), {Const: "e2"}}}}}, true},
		{Expr{Operator: "And", Args: []Expr{{Const: true}, {Const: false}}}, false},
		{Expr{Operator: "Or", Args: []Expr{{Const: false}, {Const: true}}}, true},
		{Expr{Operator: "Contains", Args: []Expr{{Const: []any{"a", "b"}}, {Const: "b"}}}, true},
	}

	for i, c := range cases {
		result, err := Eval(ctx, c.expr)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if result.Result != c.want {
			t.Errorf("case %d: got %v want %v", i, result.Result, c.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	if _, err := Eval(RequestContext{}, Expr{Operator: "Xor"}); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
	if _, err := Eval(RequestContext{}, load("params.missing")); err == nil {
		t.Fatalf("expected error for a missing key")
	}
	if _, err := Eval(RequestContext{}, Expr{Operator: "And", Args: []Expr{{Const: "yes"}}}); err == nil {
		t.Fatalf("expected error for a non-bool argument")
	}
}

func TestConclusionOr(t *testing.T) {
	if Allow.Or(Deny) != Unset {
		t.Fatalf("allow and deny should cancel out")
	}
	if Unset.Or(Deny) != Deny {
		t.Fatalf("unset should yield the other conclusion")
	}
	if !Summarize(nil, true) || Summarize([]Conclusion{Deny}, true) {
		t.Fatalf("unexpected summary")
	}
}

func requestBy(requester, owner string, hasLicense bool) RequestContext {
	return RequestContext{
		Requester: requester,
		Document:  DocumentRef{Owner: owner},
		Params: map[string]any{
			"admins":     []string{"xion1admin"},
			"hasLicense": hasLicense,
		},
	}
}

func TestCollectionPolicies(t *testing.T) {
	cases := []struct {
		name       string
		collection string
		ctx        RequestContext
		want       bool
	}{
		{"own log", schemas.CollectionAntenatalLogs, requestBy("xion1alice", "xion1alice", false), true},
		{"foreign log", schemas.CollectionImmunizationLogs, requestBy("xion1mallory", "xion1alice", false), false},
		{"own linkage", schemas.CollectionLinkage, requestBy("xion1alice", "xion1alice", false), true},
		{"admin profile", schemas.CollectionProfiles, requestBy("xion1admin", "xion1alice", false), true},
		{"self profile", schemas.CollectionProfiles, requestBy("xion1alice", "xion1alice", false), false},
		{"admin role", schemas.CollectionRoles, requestBy("xion1admin", "xion1bob", false), true},
		{"unlicensed record", schemas.CollectionHealthRecords, requestBy("xion1alice", "rs-1", false), false},
		{"licensed record", schemas.CollectionHealthRecords, requestBy("xion1alice", "rs-1", true), true},
	}

	for _, c := range cases {
		got, err := Allowed(c.collection, ActionSet, c.ctx)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}

	if _, err := Allowed("unknown", ActionSet, requestBy("a", "a", false)); err == nil {
		t.Errorf("expected unknown collection to be rejected")
	}
}
