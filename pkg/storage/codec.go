package storage

import "encoding/json"

// keys: o:<order-id>, t:<trade-id>, u:<user-id>
func orderKey(id string) []byte { return append([]byte("o:"), id...) }
func tradeKey(id string) []byte { return append([]byte("t:"), id...) }
func userKey(id string) []byte  { return append([]byte("u:"), id...) }

// prefixBounds returns iterator bounds covering every key under prefix.
func prefixBounds(prefix string) (lower, upper []byte) {
	lower = []byte(prefix)
	upper = []byte(prefix)
	upper[len(upper)-1]++
	return lower, upper
}

func encodeJSON(v any) ([]byte, error) { return json.Marshal(v) }

func decodeJSON(b []byte, v any) error { return json.Unmarshal(b, v) }
