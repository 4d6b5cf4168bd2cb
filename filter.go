// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import "encoding/json"

// Filter is the request body of the streaming list endpoints
type Filter interface {
	// Templates returns the number of partial-match templates
	Templates() int
}

// PartialEqFilter selects the records equal to any of its templates on
// every field the template sets. An empty filter matches everything.
type PartialEqFilter[T any] struct {
	PartialEqFilter []T `json:"partialEqFilter,omitempty"`
}

// NewFilter builds a filter from partial-match templates
//
// Example:
//
//	key := cloudvision.NewTagKey().WithLabel("router_bgp.as", "65002")
//	filter := cloudvision.NewFilter(cloudvision.NewTag(key))
//	tags, err := client.GetTags(ctx, filter)
func NewFilter[T any](templates ...T) PartialEqFilter[T] {
	return PartialEqFilter[T]{PartialEqFilter: templates}
}

// Templates returns the number of templates
func (f PartialEqFilter[T]) Templates() int {
	return len(f.PartialEqFilter)
}

// Add returns a copy of the filter with template appended
func (f PartialEqFilter[T]) Add(template T) PartialEqFilter[T] {
	out := make([]T, 0, len(f.PartialEqFilter)+1)
	out = append(out, f.PartialEqFilter...)
	out = append(out, template)
	return PartialEqFilter[T]{PartialEqFilter: out}
}

// NewRawFilter builds a filter from Body templates, for partial matches the
// typed structs cannot express.
//
// Example:
//
//	filter, err := cloudvision.NewRawFilter(
//	    cloudvision.Body{}.Set("key.label", "site").Set("key.value", "lon1"),
//	)
func NewRawFilter(templates ...Body) (PartialEqFilter[json.RawMessage], error) {
	raw := make([]json.RawMessage, 0, len(templates))
	for _, t := range templates {
		b, err := t.Bytes()
		if err != nil {
			return PartialEqFilter[json.RawMessage]{}, newError("build filter", KindEncode, err)
		}
		if len(b) == 0 {
			b = []byte("{}")
		}
		raw = append(raw, json.RawMessage(b))
	}
	return PartialEqFilter[json.RawMessage]{PartialEqFilter: raw}, nil
}
