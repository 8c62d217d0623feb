package policy

import (
	"fmt"
	"reflect"
	"slices"
)

type Operator func(ctx RequestContext, args []any) (EvalResult, error)

var operators = map[string]Operator{
	"And":      opAnd,
	"Or":       opOr,
	"Not":      opNot,
	"Eq":       opEq,
	"Contains": opContains,
	"Load":     opLoad,
}

func failed(op, format string, a ...any) (EvalResult, error) {
	err := fmt.Errorf(format, a...)
	return EvalResult{Operator: op, Error: err.Error()}, err
}

func bools(op string, args []any) ([]bool, error) {
	out := make([]bool, len(args))
	for i, arg := range args {
		b, ok := arg.(bool)
		if !ok {
			return nil, fmt.Errorf("bad argument type for %s at index %d: expected bool, got %v", op, i, reflect.TypeOf(arg))
		}
		out[i] = b
	}
	return out, nil
}

func arity(op string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("bad argument length for %s: expected %d, got %d", op, n, len(args))
	}
	return nil
}

func opAnd(ctx RequestContext, args []any) (EvalResult, error) {
	bs, err := bools("And", args)
	if err != nil {
		return failed("And", "%v", err)
	}
	return EvalResult{Operator: "And", Result: !slices.Contains(bs, false)}, nil
}

func opOr(ctx RequestContext, args []any) (EvalResult, error) {
	bs, err := bools("Or", args)
	if err != nil {
		return failed("Or", "%v", err)
	}
	return EvalResult{Operator: "Or", Result: slices.Contains(bs, true)}, nil
}

func opNot(ctx RequestContext, args []any) (EvalResult, error) {
	if err := arity("Not", args, 1); err != nil {
		return failed("Not", "%v", err)
	}
	bs, err := bools("Not", args)
	if err != nil {
		return failed("Not", "%v", err)
	}
	return EvalResult{Operator: "Not", Result: !bs[0]}, nil
}

func opEq(ctx RequestContext, args []any) (EvalResult, error) {
	if err := arity("Eq", args, 2); err != nil {
		return failed("Eq", "%v", err)
	}
	return EvalResult{Operator: "Eq", Result: reflect.DeepEqual(args[0], args[1])}, nil
}

// Contains reports whether the list in args[0] holds args[1].
func opContains(ctx RequestContext, args []any) (EvalResult, error) {
	if err := arity("Contains", args, 2); err != nil {
		return failed("Contains", "%v", err)
	}
	switch list := args[0].(type) {
	case []any:
		return EvalResult{Operator: "Contains", Result: slices.Contains(list, args[1])}, nil
	case []string:
		s, _ := args[1].(string)
		return EvalResult{Operator: "Contains", Result: slices.Contains(list, s)}, nil
	default:
		return failed("Contains", "bad argument type for Contains: expected a list, got %v", reflect.TypeOf(args[0]))
	}
}

func opLoad(ctx RequestContext, args []any) (EvalResult, error) {
	if err := arity("Load", args, 1); err != nil {
		return failed("Load", "%v", err)
	}
	key, ok := args[0].(string)
	if !ok {
		return failed("Load", "bad argument type for Load: expected string, got %v", reflect.TypeOf(args[0]))
	}
	value, ok := ctx.lookup(key)
	if !ok {
		return failed("Load", "key not found: %s", key)
	}
	return EvalResult{Operator: "Load", Result: value}, nil
}
