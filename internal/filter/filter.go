// Package filter implements the row filter (§4.C): a list of predicates
// evaluated against a kgx.Record, each carrying a column, a polarity, an
// operator, and a typed value.
package filter

import (
	"strings"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// Filter holds a compiled list of predicates.
type Filter struct {
	predicates []config.FilterConfig
}

// New compiles cfg into a Filter.
func New(cfg []config.FilterConfig) *Filter {
	return &Filter{predicates: cfg}
}

// Keep reports whether record passes every predicate.
func (f *Filter) Keep(record *kgx.Record) bool {
	for _, p := range f.predicates {
		if !evaluate(p, record) {
			return false
		}
	}
	return true
}

// evaluate reports whether record satisfies a single predicate: the row is
// kept iff the predicate's polarity agrees with the comparison outcome, and
// a None value in the target column always drops the row regardless of
// polarity.
func evaluate(p config.FilterConfig, record *kgx.Record) bool {
	value, ok := record.Get(p.Column)
	if !ok || value == nil {
		return false
	}

	matched := compare(p.Operator, value, p.Value)

	if p.Inclusion == config.Include {
		return matched
	}
	return !matched
}

func compare(op config.Operator, actual, want any) bool {
	switch op {
	case config.OpIn, config.OpInExact:
		list, ok := want.([]any)
		if !ok {
			if asStrings, ok2 := want.([]string); ok2 {
				list = make([]any, len(asStrings))
				for i, s := range asStrings {
					list[i] = s
				}
			} else {
				return false
			}
		}
		return matchIn(op, actual, list)
	case config.OpEQ:
		return compareEquality(actual, want, true)
	case config.OpNE:
		return compareEquality(actual, want, false)
	default:
		return compareNumeric(op, actual, want)
	}
}

func matchIn(op config.Operator, actual any, list []any) bool {
	actualStr, isStr := actual.(string)
	for _, item := range list {
		if op == config.OpIn && isStr {
			if itemStr, ok := item.(string); ok && strings.Contains(actualStr, itemStr) {
				return true
			}
			continue
		}
		if compareEquality(actual, item, true) {
			return true
		}
	}
	return false
}

func compareEquality(actual, want any, wantEqual bool) bool {
	eq := toFloat(actual) == toFloat(want)
	if af, aok := actual.(string); aok {
		if wf, wok := want.(string); wok {
			eq = af == wf
		}
	}
	if wantEqual {
		return eq
	}
	return !eq
}

func compareNumeric(op config.Operator, actual, want any) bool {
	a, aok := toFloatOK(actual)
	w, wok := toFloatOK(want)
	if !aok || !wok {
		return false
	}
	switch op {
	case config.OpLT:
		return a < w
	case config.OpLE:
		return a <= w
	case config.OpGE:
		return a >= w
	case config.OpGT:
		return a > w
	default:
		return false
	}
}

func toFloat(v any) float64 {
	f, _ := toFloatOK(v)
	return f
}

func toFloatOK(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}
