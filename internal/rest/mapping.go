package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mapping types accepted by Cast.
const (
	TypeNumber = "number"
	TypeString = "string"
	TypeBool   = "bool"
	TypeList   = "list"
	TypeDict   = "dict"
)

// JSONPath walks doc along a dotted path with bracketed array indexes,
// e.g. "$.a.b[0].c". A leading "$." or "$" is optional. The boolean is
// false when any step is missing, out of range or applied to the wrong
// shape; a JSON null also reads as missing.
func JSONPath(path string, doc any) (any, bool) {
	cur := doc
	for _, tok := range splitPath(path) {
		if cur = step(cur, tok); cur == nil {
			return nil, false
		}
	}
	return cur, cur != nil
}

func splitPath(p string) []string {
	p = strings.TrimSpace(p)
	switch {
	case strings.HasPrefix(p, "$."):
		p = p[2:]
	case strings.HasPrefix(p, "$"):
		p = p[1:]
	}

	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				toks = append(toks, p[i:])
				return toks
			}
			toks = append(toks, p[i:i+end+1])
			i += end
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}

func step(obj any, tok string) any {
	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		idx, err := strconv.Atoi(tok[1 : len(tok)-1])
		if err != nil || idx < 0 {
			return nil
		}
		list, ok := obj.([]any)
		if !ok || idx >= len(list) {
			return nil
		}
		return list[idx]
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	return m[tok]
}

// Cast coerces v to the named mapping type. It returns nil when the value
// cannot be represented, except for "string" where a nil value becomes "".
// An empty or unknown type passes v through unchanged.
func Cast(v any, typ string) any {
	switch typ {
	case TypeNumber:
		f, ok := toNumber(v)
		if !ok {
			return nil
		}
		return f
	case TypeString:
		if v == nil {
			return ""
		}
		return stringify(v)
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b
		}
		if v == nil {
			return nil
		}
		switch strings.ToLower(stringify(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return nil
	case TypeList:
		if l, ok := v.([]any); ok {
			return l
		}
		return nil
	case TypeDict:
		if m, ok := v.(map[string]any); ok {
			return m
		}
		return nil
	default:
		return v
	}
}

// MapFields applies every mapping of src to payload. Every mapping yields an
// entry; fields missing from the payload map to nil (or "" for strings).
func MapFields(src Source, payload any) map[string]any {
	out := make(map[string]any, len(src.Mappings))
	for _, m := range src.Mappings {
		v, _ := JSONPath(m.Path, payload)
		out[m.Name] = Cast(v, m.Type)
	}
	return out
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case map[string]any, []any:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	default:
		return fmt.Sprint(s)
	}
}
