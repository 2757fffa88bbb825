// Package service answers variable table queries
package service

import (
	"strings"

	"chartline/internal/core/extract"
	"chartline/internal/core/vars"
	perr "chartline/internal/platform/errors"
	"chartline/internal/services/api/variables/domain"
)

// Service reads one registry
type Service struct {
	reg *vars.Registry
}

// New returns a Service over reg
func New(reg *vars.Registry) Service { return Service{reg: reg} }

// List returns every descriptor matching in, in registry order
func (s Service) List(in domain.ListInput) ([]domain.Variable, error) {
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	switch typ {
	case "", "int", "float", "bool", "future":
	default:
		return nil, perr.WithField(perr.InvalidArgf("variables: unknown type %q", in.Type), "type")
	}
	out := make([]domain.Variable, 0, s.reg.Len())
	for _, d := range s.reg.All() {
		if typ != "" && d.Type.String() != typ {
			continue
		}
		if in.Derived != nil && d.Derived != *in.Derived {
			continue
		}
		out = append(out, domain.Variable{Descriptor: d, Classes: d.NumClasses()})
	}
	return out, nil
}

// Get looks up one variable; offsets such as Cr[-1] resolve to their base name
func (s Service) Get(name string) (domain.Variable, error) {
	ref, err := s.reg.Resolve(name)
	if err != nil {
		return domain.Variable{}, err
	}
	return domain.Variable{Descriptor: ref.Desc, Classes: ref.Desc.NumClasses()}, nil
}

// Vectorize normalizes user supplied values into one input row
func (s Service) Vectorize(in domain.VectorizeInput) (domain.VectorizeOutput, error) {
	mode, err := vars.ParseNorm(in.Norm)
	if err != nil {
		return domain.VectorizeOutput{}, perr.WithField(err, "norm")
	}
	row, err := extract.Vectorize(s.reg, in.Inputs, in.Values, mode)
	if err != nil {
		return domain.VectorizeOutput{}, err
	}
	return domain.VectorizeOutput{Inputs: in.Inputs, Norm: string(mode), Row: row}, nil
}
