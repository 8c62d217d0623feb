package policy

import (
	"fmt"
	"strings"
)

// Summarize folds conclusions with Or. When nothing concludes, defaultAllow decides.
func Summarize(conclusions []Conclusion, defaultAllow bool) bool {
	result := Unset
	for _, c := range conclusions {
		result = result.Or(c)
	}
	if result == Unset {
		return defaultAllow
	}
	return result == Allow
}

// EvaluatePolicy runs every statement registered for action. A statement whose
// condition cannot be evaluated does not contribute.
func EvaluatePolicy(doc PolicyDocument, ctx RequestContext, action string) (Conclusion, error) {
	policy, ok := doc.Versions[CurrentVersion]
	if !ok {
		return Unset, fmt.Errorf("unsupported policy version")
	}

	conclusion := Unset
	for _, stmt := range policy.Statements[action] {
		res, err := Eval(ctx, stmt.Condition)
		if err != nil {
			continue
		}
		if res.Result == true {
			conclusion = conclusion.Or(ParseConclusion(stmt.Emit))
		}
	}
	return conclusion, nil
}

func Eval(ctx RequestContext, expr Expr) (EvalResult, error) {
	if expr.Const != nil {
		return EvalResult{Operator: "Const", Result: expr.Const}, nil
	}

	op, ok := operators[expr.Operator]
	if !ok {
		return failed(expr.Operator, "unknown operator: %s", expr.Operator)
	}

	args := make([]any, 0, len(expr.Args))
	for _, arg := range expr.Args {
		res, err := Eval(ctx, arg)
		if err != nil {
			return EvalResult{Operator: expr.Operator, Error: err.Error()}, err
		}
		args = append(args, res.Result)
	}
	return op(ctx, args)
}

// lookup resolves a dotted key against ctx.
func (ctx RequestContext) lookup(key string) (any, bool) {
	head, rest, _ := strings.Cut(key, ".")
	switch head {
	case "requester":
		return ctx.Requester, rest == ""
	case "document":
		switch rest {
		case "owner":
			return ctx.Document.Owner, true
		case "collection":
			return ctx.Document.Collection, true
		case "id":
			return ctx.Document.ID, true
		}
		return nil, false
	case "params":
		var current any = ctx.Params
		for _, k := range strings.Split(rest, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = m[k]; !ok {
				return nil, false
			}
		}
		return current, true
	}
	return nil, false
}
