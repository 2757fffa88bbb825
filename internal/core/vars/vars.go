// Package vars holds the variable registry: bounds, types and look-ahead needs
// for every named value a compiled timeline can carry
package vars

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	perr "chartline/internal/platform/errors"
)

// Type is the semantic type of a variable
type Type int

const (
	// TypeInt is an integer-valued measurement or index
	TypeInt Type = iota
	// TypeFloat is a continuous measurement
	TypeFloat
	// TypeBool is a 0/1 flag
	TypeBool
	// TypeFuture is an ordinal "how soon will X happen" category
	TypeFuture
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeFuture:
		return "future"
	}
	return "unknown"
}

// MarshalText renders the type by name
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a type name
func (t *Type) UnmarshalText(b []byte) error {
	for c := TypeInt; c <= TypeFuture; c++ {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return perr.InvalidArgf("vars: unknown type %q", b)
}

// NumFutureCategories is the number of ordinal buckets of a future-event variable
const NumFutureCategories = 14

// NumValueBuckets is the number of equal-width buckets used for numeric result classes
const NumValueBuckets = 20

// PredictsAny marks a future variable whose signal is the variable itself
const PredictsAny = "ANY"

// Descriptor describes one variable
type Descriptor struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Type    Type    `json:"type"`
	Derived bool    `json:"derived"`

	// FutureDays is the forward knowledge needed to label the variable safely
	FutureDays int `json:"future_days"`
	// Predicts names the variable whose presence proves that future knowledge
	// exists; empty for variables that need no look-ahead clipping
	Predicts string `json:"predicts,omitempty"`
}

// NeedsLookahead reports whether samples must be clipped for this variable
func (d Descriptor) NeedsLookahead() bool { return d.Predicts != "" }

// Signal is the variable whose latest occurrence bounds look-ahead clipping
func (d Descriptor) Signal() string {
	if d.Predicts == PredictsAny {
		return d.Name
	}
	return d.Predicts
}

// Clip bounds v to [Min, Max]
func (d Descriptor) Clip(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// Registry is an immutable table of descriptors keyed by name
type Registry struct {
	byName map[string]Descriptor
	names  []string
}

// New builds a registry; duplicate or empty names and inverted bounds are errors
func New(ds []Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		if d.Name == "" {
			return nil, perr.InvalidArgf("vars: descriptor without a name")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, perr.InvalidArgf("vars: duplicate descriptor %q", d.Name)
		}
		if d.Max < d.Min {
			return nil, perr.InvalidArgf("vars: %q has max %v below min %v", d.Name, d.Max, d.Min)
		}
		r.byName[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in clinical registry, built once per process
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New(builtin())
		if err != nil {
			panic(err)
		}
		defaultReg = r
	})
	return defaultReg
}

// Lookup returns the descriptor for an exact name
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Get is Lookup with a named failure for unknown variables
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, perr.UnknownVariablef(name)
	}
	return d, nil
}

// Names lists every registered name in sorted order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All lists every descriptor sorted by name
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.byName[n])
	}
	return out
}

// Len is the number of registered variables
func (r *Registry) Len() int { return len(r.names) }

// NumClasses is 2 for flags, 14 for future categories and 1 for plain values
func (r *Registry) NumClasses(name string) (int, error) {
	d, err := r.Get(stem(name))
	if err != nil {
		return 0, err
	}
	return d.NumClasses(), nil
}

// NumClasses is 2 for flags, 14 for future categories and 1 for plain values
func (d Descriptor) NumClasses() int {
	switch d.Type {
	case TypeBool:
		return 2
	case TypeFuture:
		return NumFutureCategories
	}
	return 1
}

// ResultClass buckets a target value: flags and categories map to themselves,
// numeric values fall into one of NumValueBuckets equal-width buckets
func (r *Registry) ResultClass(name string, v float64) (int, error) {
	d, err := r.Get(stem(name))
	if err != nil {
		return 0, err
	}
	return d.ResultClass(v), nil
}

// ResultClass buckets a target value, see Registry.ResultClass
func (d Descriptor) ResultClass(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	switch d.Type {
	case TypeBool:
		if v > 0 {
			return 1
		}
		return 0
	case TypeFuture:
		c := int(v)
		if c < 0 {
			return 0
		}
		if c >= NumFutureCategories {
			return NumFutureCategories - 1
		}
		return c
	}
	width := (d.Max - d.Min) / NumValueBuckets
	if width <= 0 {
		return 0
	}
	b := int((d.Clip(v) - d.Min) / width)
	if b >= NumValueBuckets {
		b = NumValueBuckets - 1
	}
	return b
}

// Ref is a requested variable: a registered stem plus a signed day offset
type Ref struct {
	Raw    string
	Name   string
	Offset int
	Desc   Descriptor
}

// ParseRef splits "Name" or "Name[+-N]" into stem and offset
func ParseRef(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" {
			return "", 0, perr.InvalidArgf("vars: empty variable name")
		}
		if strings.IndexByte(s, ']') >= 0 {
			return "", 0, perr.InvalidArgf("vars: %q has an unmatched ]", s)
		}
		return s, 0, nil
	}
	name := s[:open]
	if name == "" {
		return "", 0, perr.InvalidArgf("vars: %q has no name before the offset", s)
	}
	if !strings.HasSuffix(s, "]") {
		return "", 0, perr.InvalidArgf("vars: %q offset is not closed", s)
	}
	n, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil {
		return "", 0, perr.InvalidArgf("vars: %q offset is not an integer", s)
	}
	return name, n, nil
}

// Resolve parses a reference and looks up its stem; Dose/<Med> stems map to
// the medication's daily dose variable
func (r *Registry) Resolve(s string) (Ref, error) {
	name, off, err := ParseRef(s)
	if err != nil {
		return Ref{}, err
	}
	if med, ok := strings.CutPrefix(name, DosePrefix); ok {
		v, known := MedDose(med)
		if !known {
			return Ref{}, perr.UnknownVariablef(name)
		}
		name = v
	}
	d, err := r.Get(name)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Raw: strings.TrimSpace(s), Name: name, Offset: off, Desc: d}, nil
}

// ResolveAll resolves every reference, failing on the first unknown one
func (r *Registry) ResolveAll(names []string) ([]Ref, error) {
	out := make([]Ref, 0, len(names))
	for _, n := range names {
		ref, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func stem(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
