// Package query renders optional call parameters into wire query strings.
//
// The remote API has no array encoding: list-valued parameters travel as a
// single comma-joined value (OpenAPI "form" style, explode=false). Absent
// parameters are omitted entirely.
package query

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// Builder accumulates query parameters. The first encoding error sticks and
// is reported by Values.
type Builder struct {
	values url.Values
	err    error
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{values: url.Values{}}
}

// Set encodes value under name, replacing any previous value.
// Slices are comma-joined; scalars are rendered verbatim.
func (b *Builder) Set(name string, value any) *Builder {
	if b.err != nil {
		return b
	}
	frag, err := runtime.StyleParamWithLocation("form", false, name, runtime.ParamLocationQuery, value)
	if err != nil {
		b.err = fmt.Errorf("encode %s: %w", name, err)
		return b
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		b.err = fmt.Errorf("parse %s: %w", name, err)
		return b
	}
	b.values.Del(name)
	for k, vs := range parsed {
		for _, v := range vs {
			b.values.Add(k, v)
		}
	}
	return b
}

// String sets name when v is non-empty.
func (b *Builder) String(name, v string) *Builder {
	if v == "" {
		return b
	}
	return b.Set(name, v)
}

// Int sets name when v is non-nil. An explicit zero is sent.
func (b *Builder) Int(name string, v *int) *Builder {
	if v == nil {
		return b
	}
	return b.Set(name, *v)
}

// Bool sets name when v is non-nil.
func (b *Builder) Bool(name string, v *bool) *Builder {
	if v == nil {
		return b
	}
	return b.Set(name, *v)
}

// List sets name to the comma-joined elements of v when v is non-empty.
func (b *Builder) List(name string, v []string) *Builder {
	if len(v) == 0 {
		return b
	}
	if len(v) == 1 {
		// A one-element list and its scalar must produce the same parameter.
		return b.Set(name, v[0])
	}
	return b.Set(name, v)
}

// Values returns the accumulated parameters or the first encoding error.
func (b *Builder) Values() (url.Values, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.values, nil
}
