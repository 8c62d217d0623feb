package utils

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap marshals to a JSON object whose members follow Order instead of key order.
type OrderedKVMap[T any] map[string]OrderedKV[T]

// Append adds key after every member already present.
func (om OrderedKVMap[T]) Append(key string, value T) OrderedKVMap[T] {
	om[key] = OrderedKV[T]{
		Value: value,
		Order: int64(len(om)),
	}
	return om
}

// Keys returns the member names in marshal order. Ties on Order fall back to the key.
func (om OrderedKVMap[T]) Keys() []string {
	keys := make([]string, 0, len(om))
	for k := range om {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(om[a].Order, om[b].Order); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range om.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(om[key].Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
