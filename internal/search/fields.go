package search

import (
	"strconv"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/searchconfig"
)

// Fields is an ordered map of extracted field name to value. Values are a
// small tagged set: string, int64 (for integer-looking captures) or nil (for
// a named group that did not participate in the match). Order follows the
// pattern's capture-group order and survives merge rewrites.
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields returns an empty field map.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]any)}
}

// Set stores a value under name. A new name is appended; an existing name
// keeps its position.
func (f *Fields) Set(name string, v any) {
	if _, ok := f.vals[name]; !ok {
		f.keys = append(f.keys, name)
	}
	f.vals[name] = v
}

// Get returns the value stored under name.
func (f *Fields) Get(name string) (any, bool) {
	v, ok := f.vals[name]
	return v, ok
}

// Delete removes name, preserving the order of the remaining fields.
func (f *Fields) Delete(name string) {
	if _, ok := f.vals[name]; !ok {
		return
	}
	delete(f.vals, name)
	for i, k := range f.keys {
		if k == name {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// insertAt stores a value under name at the given key position.
func (f *Fields) insertAt(idx int, name string, v any) {
	if _, ok := f.vals[name]; ok {
		f.vals[name] = v
		return
	}
	if idx < 0 || idx > len(f.keys) {
		idx = len(f.keys)
	}
	f.keys = append(f.keys, "")
	copy(f.keys[idx+1:], f.keys[idx:])
	f.keys[idx] = name
	f.vals[name] = v
}

func (f *Fields) indexOf(name string) int {
	for i, k := range f.keys {
		if k == name {
			return i
		}
	}
	return -1
}

// Keys returns the field names in insertion order.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields.
func (f *Fields) Len() int { return len(f.keys) }

// Map returns a plain map copy of the fields, losing order. Intended for
// assertions and exporters that do their own ordering.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, len(f.vals))
	for k, v := range f.vals {
		out[k] = v
	}
	return out
}

// coerceValue turns an integer-looking capture into an int64 and leaves
// everything else as a string.
func coerceValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	return s
}

// isEmptyValue reports whether a field value counts as empty for merge
// purposes: nil, or a string with no content.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// applyMerges rewrites f in place according to the merge rules: per rule the
// first non-empty source column wins, the destination column takes the
// position of the first source column present, and all source columns are
// removed.
func applyMerges(f *Fields, rules []searchconfig.MergeRule) {
	for _, rule := range rules {
		destIdx := -1
		var winner any = ""
		won := false
		for _, src := range rule.SourceColumns {
			idx := f.indexOf(src)
			if idx < 0 {
				continue
			}
			if destIdx < 0 {
				destIdx = idx
			}
			if v, ok := f.Get(src); ok && !won && !isEmptyValue(v) {
				winner = v
				won = true
			}
		}
		if destIdx < 0 {
			continue
		}
		// Removing the sources cannot disturb destIdx: the first source sits
		// exactly there and the rest come after it.
		for _, src := range rule.SourceColumns {
			f.Delete(src)
		}
		f.insertAt(destIdx, rule.DestColumn, winner)
	}
}
