// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// Res represents the raw response of a Get or Post call
type Res struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Header holds the response headers
	Header http.Header

	// Body is the raw response body
	Body []byte
}

// String returns the response body as text
func (r Res) String() string {
	return string(r.Body)
}

// GetValue retrieves a value from a single-document response body using a
// gjson path.
//
// Example:
//
//	res, err := client.Get(ctx, cloudvision.DevicePath, "key.deviceId=SSJ17200818")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model := res.GetValue("value.modelName").String()
func (r Res) GetValue(path string) gjson.Result {
	if len(r.Body) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Body, path)
}

// Lines returns one gjson.Result per JSON document of a streaming body.
// Documents that do not parse are left out.
func (r Res) Lines() []gjson.Result {
	var out []gjson.Result
	forEachValue(r.Body, func(raw []byte) {
		out = append(out, gjson.ParseBytes(raw))
	}, nil)
	return out
}
