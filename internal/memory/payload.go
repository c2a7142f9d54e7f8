package memory

import (
	"strconv"
)

// FromPayload converts a memory object decoded from client JSON into a
// Memory. Clients own this data, so malformed parts are dropped or coerced
// instead of failing the request: a non-array turns list reads as no turns,
// falsy content or summary reads as "", and scalar content is stringified.
// Turns that are not objects, or whose role or content is not usable, are
// skipped. Role filtering happens when the prompt is built.
func FromPayload(raw any) Memory {
	mem := Empty()
	obj, ok := raw.(map[string]any)
	if !ok {
		return mem
	}
	mem.Summary, _ = looseString(obj["summary"])

	turns, ok := obj["turns"].([]any)
	if !ok {
		return mem
	}
	for _, item := range turns {
		t, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, ok := t["role"].(string)
		if !ok {
			continue
		}
		content, ok := looseString(t["content"])
		if !ok {
			continue
		}
		mem.Turns = append(mem.Turns, Turn{Role: role, Content: content})
	}
	return mem
}

// looseString reports false for values that have no sensible text form.
func looseString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case bool:
		if !x {
			return "", true
		}
		return "true", true
	case float64:
		if x == 0 {
			return "", true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}
