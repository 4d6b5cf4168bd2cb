// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"crypto/x509"
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Request bodies logged at Debug level are redacted; the bearer token is
// never logged.
//
// Example:
//
//	logger := cloudvision.NewDefaultLogger(cloudvision.LogLevelInfo)
//	client, _ := cloudvision.NewClient(cfg, cloudvision.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// WithHTTPTransport sets the transport every call clones and hands to its
// resty engine before applying the TLS policy. Defaults to a clone of
// http.DefaultTransport.
func WithHTTPTransport(transport *http.Transport) func(*Client) {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

// WithRootCAs sets the certificate pool used to verify the server
// certificate. The system pool is used when unset.
func WithRootCAs(pool *x509.CertPool) func(*Client) {
	return func(c *Client) {
		c.rootCAs = pool
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(userAgent string) func(*Client) {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that bounds a single call.
//
// The library applies no timeout of its own; without this modifier a call
// runs until the caller's context is done or the transport gives up.
//
// Example:
//
//	devices, err := client.GetDevices(ctx, filter,
//	    cloudvision.Timeout(30*time.Second))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Header returns a request modifier that adds a header to a single call.
// Accept and Authorization are always set by the client and cannot be
// overridden this way.
func Header(key, value string) func(*Req) {
	return func(req *Req) {
		if req.Header == nil {
			req.Header = http.Header{}
		}
		req.Header.Add(key, value)
	}
}
