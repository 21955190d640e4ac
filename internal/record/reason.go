package record

import (
	"fmt"
	"strings"
)

// Code identifies why a row was rejected.
type Code string

const (
	CodeInvalidImageIndex    Code = "invalid_image_index"
	CodeInvalidGender        Code = "invalid_gender"
	CodeMalformedCoordinates Code = "malformed_coordinates"
	CodeInvalidCoordinates   Code = "invalid_coordinates"
)

// Param is a named value captured alongside a rejection.
type Param struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Reason is a machine-inspectable rejection cause. It is rendered to text
// only when written out.
type Reason struct {
	Code   Code    `json:"code" yaml:"code"`
	Params []Param `json:"params,omitempty" yaml:"params,omitempty"`
}

// NewReason builds a reason from alternating parameter names and values.
func NewReason(code Code, kv ...string) Reason {
	r := Reason{Code: code}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Params = append(r.Params, Param{Name: kv[i], Value: kv[i+1]})
	}
	return r
}

// Param returns the named parameter value.
func (r Reason) Param(name string) (string, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the reason the way it appears in the rejected-rows files.
func (r Reason) String() string {
	switch r.Code {
	case CodeInvalidImageIndex:
		return "Invalid Image Index"
	case CodeInvalidGender:
		v, _ := r.Param("gender")
		return "Invalid/Missing Gender: " + v
	case CodeMalformedCoordinates:
		return "Malformed Coordinates"
	case CodeInvalidCoordinates:
		parts := make([]string, 0, len(r.Params))
		for _, p := range r.Params {
			parts = append(parts, p.Name+"="+p.Value)
		}
		return "Invalid Coordinates: " + strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%s %v", r.Code, r.Params)
	}
}

// Label is a short human description of a code, used in report breakdowns.
func (c Code) Label() string {
	switch c {
	case CodeInvalidImageIndex:
		return "Invalid Image Index"
	case CodeInvalidGender:
		return "Invalid/Missing Gender"
	case CodeMalformedCoordinates:
		return "Malformed Coordinates"
	case CodeInvalidCoordinates:
		return "Invalid Coordinates"
	}
	return string(c)
}
