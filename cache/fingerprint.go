// Package cache provides the two-tier (memory + file) TTL cache and the
// fingerprinting rule shared by the retrieval orchestrator and the source
// adapters.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives a deterministic cache key from an operation name and
// its parameters. Null parameters are removed and the remaining keys are
// serialized in sorted order before hashing, so two parameter objects
// differing only in key order or in absent/null fields yield the same key.
//
// params may be any JSON-serializable value; structs are flattened through
// their JSON encoding, which also drops omitempty zero fields.
func Fingerprint(op string, params any) string {
	canonical := canonicalize(params)
	sum := xxhash.Sum64String(canonical)
	return fmt.Sprintf("%s:%016x", op, sum)
}

// canonicalize renders params as a deterministic string. It round-trips
// through JSON so that maps and structs normalize identically, strips null
// values at every level, and emits object keys in sorted order.
func canonicalize(params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		// Unserializable parameters cannot come from the protocol boundary;
		// fall back to the fmt rendering rather than panic.
		return fmt.Sprintf("%v", params)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}

	var b strings.Builder
	writeCanonical(&b, decoded)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		raw, _ := json.Marshal(val)
		b.Write(raw)
	}
}
