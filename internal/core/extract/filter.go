package extract

import (
	"strconv"
	"strings"

	"chartline/internal/core/vars"
	perr "chartline/internal/platform/errors"
)

// Op is a filter comparison
type Op int

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpLTE
	OpGT
	OpGTE
)

// checked longest first so .LTE. wins over .LT. and != over =
var opTokens = []struct {
	tok string
	op  Op
}{
	{".LTE.", OpLTE},
	{".GTE.", OpGTE},
	{".LT.", OpLT},
	{".GT.", OpGT},
	{"!=", OpNE},
	{"=", OpEQ},
}

func (o Op) String() string {
	for _, t := range opTokens {
		if t.op == o {
			return t.tok
		}
	}
	return "?"
}

// Filter is one parsed clause; it always reads its variable at offset 0
type Filter struct {
	Ref   vars.Ref
	Op    Op
	Value float64
}

// ParseFilters reads semicolon separated clauses like "K.GT.5;InHospital=1"
func ParseFilters(reg *vars.Registry, s string) ([]Filter, error) {
	var out []Filter
	for _, clause := range strings.Split(s, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		f, err := parseClause(reg, clause)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseClause(reg *vars.Registry, clause string) (Filter, error) {
	upper := strings.ToUpper(clause)
	for _, t := range opTokens {
		at := strings.Index(upper, t.tok)
		if at < 0 {
			continue
		}
		name := strings.TrimSpace(clause[:at])
		lit := strings.TrimSpace(clause[at+len(t.tok):])
		if name == "" || lit == "" {
			return Filter{}, perr.InvalidArgf("extract: filter %q is incomplete", clause)
		}
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Filter{}, perr.InvalidArgf("extract: filter %q value is not a number", clause)
		}
		ref, err := reg.Resolve(name)
		if err != nil {
			return Filter{}, err
		}
		ref.Offset = 0
		return Filter{Ref: ref, Op: t.op, Value: v}, nil
	}
	return Filter{}, perr.InvalidArgf("extract: filter %q has no operator", clause)
}

// Match compares v against the literal. Float variables compare as floats;
// every other type compares truncated to integers.
func (f Filter) Match(v float64) bool {
	if f.Ref.Desc.Type == vars.TypeFloat {
		return compare(f.Op, v, f.Value)
	}
	return compare(f.Op, float64(int64(v)), float64(int64(f.Value)))
}

func compare(op Op, a, b float64) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLTE:
		return a <= b
	case OpGT:
		return a > b
	case OpGTE:
		return a >= b
	}
	return false
}
