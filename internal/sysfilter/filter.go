// Package sysfilter evaluates system-attribute predicates that restrict
// which classified systems a search applies to.
package sysfilter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// Operator is a comparison operator usable in a sys_filter block.
type Operator string

const (
	OpEq Operator = "eq"
	OpGt Operator = "gt"
	OpLt Operator = "lt"
	OpGe Operator = "ge"
	OpLe Operator = "le"
	OpIn Operator = "in"
)

// OperatorFromString normalizes a free-form string to an Operator. The
// second return is false for unknown operators.
func OperatorFromString(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpEq, OpGt, OpLt, OpGe, OpLe, OpIn:
		return op, true
	}
	return "", false
}

// Filter is a single predicate over one system attribute. Value holds a
// scalar for all operators except "in", which requires a collection.
type Filter struct {
	Attr  string `yaml:"attr"`
	Comp  string `yaml:"comp"`
	Value any    `yaml:"value"`
}

// Validate checks the filter's shape. It is called once at config-load time
// so that malformed filters surface as fatal config errors before scanning.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Attr) == "" {
		return fmt.Errorf("sys_filter: attr must not be empty")
	}
	op, ok := OperatorFromString(f.Comp)
	if !ok {
		return fmt.Errorf("sys_filter %q: unknown comparison operator %q", f.Attr, f.Comp)
	}
	if f.Value == nil {
		return fmt.Errorf("sys_filter %q: value must not be empty", f.Attr)
	}
	_, isList := f.Value.([]any)
	if op == OpIn && !isList {
		return fmt.Errorf("sys_filter %q: operator \"in\" requires a list value", f.Attr)
	}
	if op != OpIn && isList {
		return fmt.Errorf("sys_filter %q: operator %q requires a scalar value", f.Attr, op)
	}
	return nil
}

// versionAttrs are compared as dotted integer tuples rather than plain
// strings or numbers.
var versionAttrs = map[string]bool{
	system.AttrProducerVersion: true,
	system.AttrCurrentBuild:    true,
	system.AttrUBR:             true,
}

// Matches reports whether s passes every filter. An empty filter list matches
// everything. A filter whose attribute does not apply to the system's OS
// family is skipped rather than failed, so a Windows-only predicate never
// excludes a Linux system.
func Matches(s *system.System, filters []Filter) bool {
	for _, f := range filters {
		if !system.AttrApplicable(f.Attr, s.OSFamily) {
			continue
		}
		if !f.match(s) {
			return false
		}
	}
	return true
}

// FilterSystems returns the systems that pass all filters, preserving the
// input order.
func FilterSystems(systems []*system.System, filters []Filter) []*system.System {
	if len(filters) == 0 {
		return systems
	}
	kept := make([]*system.System, 0, len(systems))
	for _, s := range systems {
		if Matches(s, filters) {
			kept = append(kept, s)
		}
	}
	return kept
}

func (f Filter) match(s *system.System) bool {
	sysVal, ok := s.Attr(f.Attr)
	if !ok {
		return false
	}
	op, valid := OperatorFromString(f.Comp)
	if !valid {
		// Validate rejects unknown operators at load time; an invalid
		// operator reaching this point cannot match anything.
		return false
	}

	if op == OpIn {
		items, _ := f.Value.([]any)
		for _, item := range items {
			if normalize(f.Attr, stringify(item)) == sysVal {
				return true
			}
		}
		return false
	}

	want := normalize(f.Attr, stringify(f.Value))

	if versionAttrs[f.Attr] {
		if c, parsed := compareVersions(sysVal, want); parsed {
			return applyOp(op, c)
		}
		return applyOp(op, strings.Compare(sysVal, want))
	}

	if op == OpEq {
		return sysVal == want
	}

	if sysNum, err := strconv.ParseFloat(sysVal, 64); err == nil {
		if wantNum, err := strconv.ParseFloat(want, 64); err == nil {
			switch {
			case sysNum < wantNum:
				return applyOp(op, -1)
			case sysNum > wantNum:
				return applyOp(op, 1)
			default:
				return applyOp(op, 0)
			}
		}
	}

	return applyOp(op, strings.Compare(sysVal, want))
}

// applyOp interprets a three-way comparison result (system value vs filter
// value) under the given operator.
func applyOp(op Operator, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpGt:
		return c > 0
	case OpLt:
		return c < 0
	case OpGe:
		return c >= 0
	case OpLe:
		return c <= 0
	}
	return false
}

// normalize maps filter values for enum-backed attributes onto the canonical
// enum spelling, so "linux" matches a system classified as "Linux".
func normalize(attr, val string) string {
	switch attr {
	case system.AttrOSFamily:
		return string(system.OSFamilyFromString(val))
	case system.AttrDistroFamily:
		return string(system.DistroFamilyFromString(val))
	case system.AttrProducer:
		return string(system.ProducerFromString(val))
	}
	return val
}

// stringify renders a YAML scalar the way the comparison layer expects.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
