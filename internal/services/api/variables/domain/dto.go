// Package domain holds the variables API DTOs
package domain

import "chartline/internal/core/vars"

// Variable is a descriptor plus its result class count
type Variable struct {
	vars.Descriptor
	Classes int `json:"classes"`
}

// ListInput filters the variable list
type ListInput struct {
	Type    string // int, float, bool or future; empty for all
	Derived *bool
}

// VectorizeInput asks for one normalized input row
type VectorizeInput struct {
	Inputs []string `json:"inputs" validate:"required,min=1,max=256,dive,varref"`
	Values string   `json:"values" validate:"required"`
	Norm   string   `json:"norm,omitempty"`
}

// VectorizeOutput is the normalized row in input order
type VectorizeOutput struct {
	Inputs []string  `json:"inputs"`
	Norm   string    `json:"norm"`
	Row    []float64 `json:"row"`
}
