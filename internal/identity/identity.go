// Package identity derives stable content identities from a tenant,
// namespace and key set. The hash is independent of key ordering, so the
// same logical keys always address the same content row.
package identity

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize encodes a key set deterministically: object keys sorted,
// scalars rendered in one fixed form regardless of how the caller spelled
// them. The output is a compact JSON document.
func Canonicalize(keys map[string]any) ([]byte, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("empty key set")
	}
	var sb strings.Builder
	if err := writeCanonical(&sb, keys); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// KeysHash is the 32-byte content identity component derived from the
// canonical key-set encoding.
func KeysHash(keys map[string]any) ([]byte, error) {
	canon, err := Canonicalize(keys)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(canon)
	return sum[:], nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case string:
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(raw)
	case float64:
		sb.WriteString(formatNumber(val))
	case float32:
		sb.WriteString(formatNumber(float64(val)))
	case int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return err
		}
		sb.WriteString(formatNumber(f))
	case map[string]any:
		names := make([]string, 0, len(val))
		for k := range val {
			names = append(names, k)
		}
		sort.Strings(names)
		sb.WriteByte('{')
		for i, k := range names {
			if i > 0 {
				sb.WriteByte(',')
			}
			raw, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(raw)
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	default:
		return fmt.Errorf("unsupported key value type %T", v)
	}
	return nil
}

// formatNumber renders integral floats without a fraction so 2 and 2.0
// hash identically.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
