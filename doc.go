// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package cloudvision provides a typed client for the CloudVision REST
// resource API: device inventory, tags, tag assignments and change control.
//
// Every call is a single HTTPS GET or POST carrying a bearer token. The
// library does not retry, rate limit or cache anything.
//
// # Quick Start
//
// Resolve a configuration once at startup and build a client from it:
//
//	cfg, err := cloudvision.ConfigFromEnv() // CLOUDVISION_HOSTNAME, _PORT, _TOKEN
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := cloudvision.NewClient(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	devices, err := client.GetDevices(ctx, cloudvision.NewFilter[cloudvision.Device]())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Println(d.Value.DeviceID(), d.Value.ModelName)
//	}
//
// # Configuration Files
//
// ConfigFromFile reads TOML (or YAML for .yaml/.yml files):
//
//	hostname = "www.cv-staging.corp.arista.io"
//	port = 443
//	token = "..."
//	accept_invalid_certs = false
//
// # Streaming Responses
//
// The list endpoints answer with a sequence of JSON documents, one per
// record, each either {"result": ...} or {"error": ...}. DecodeStream keeps
// the results in order and skips error entries and fragments that do not
// parse, so one bad record never fails a listing.
//
// # Filters
//
// List calls take a PartialEqFilter of partially populated records. An
// empty filter matches everything. Body and NewRawFilter build templates
// the typed structs cannot express:
//
//	filter, err := cloudvision.NewRawFilter(
//	    cloudvision.Body{}.Set("key.label", "site").Set("key.value", "lon1"))
//
// # Errors
//
// Errors are *CloudVisionError values classified by Kind and usable with
// errors.Is against ErrRequest, ErrEncode, ErrDecode, ErrURLParse,
// ErrBadClientPort, ErrNoToken and ErrStatus. Service error documents carry
// grpc status codes, so status.Code(err) works on returned errors.
//
// # Thread Safety
//
// A Client keeps no per-call state and may be shared across goroutines.
// SetAcceptInvalidCerts is not synchronized; flip it only while no calls
// are in flight.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package cloudvision
