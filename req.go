// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"net/http"
	"time"
)

// Req represents a request modifier
//
// This struct is used to apply request-specific options via functional modifiers.
// Paths and bodies are passed directly to methods.
//
// Example:
//
//	res, err := client.Get(ctx, cloudvision.DevicePath, "key.deviceId=SSJ17200818",
//	    cloudvision.Timeout(10*time.Second))
type Req struct {
	// Timeout bounds the call if set
	Timeout time.Duration

	// Header holds extra request headers
	Header http.Header
}

func newReq(mods []func(*Req)) *Req {
	req := &Req{}
	for _, mod := range mods {
		mod(req)
	}
	return req
}
