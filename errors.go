// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a CloudVisionError
type ErrorKind int

const (
	// KindNoToken is returned when a client is built without a bearer token
	KindNoToken ErrorKind = iota + 1

	// KindRequest wraps network and TLS failures from the HTTP engine
	KindRequest

	// KindEncode wraps failures serializing an outbound request body
	KindEncode

	// KindDecode wraps failures decoding a response body
	KindDecode

	// KindURLParse wraps failures building the base URL from the hostname
	KindURLParse

	// KindBadClientPort is returned when the port cannot be applied to the base URL
	KindBadClientPort

	// KindStatus is returned when the service answers with a non-2xx status
	KindStatus
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNoToken:
		return "no token"
	case KindRequest:
		return "request"
	case KindEncode:
		return "json encode"
	case KindDecode:
		return "json decode"
	case KindURLParse:
		return "url parse"
	case KindBadClientPort:
		return "bad client port"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Sentinel errors for use with errors.Is
//
// Example:
//
//	_, err := client.GetDevices(ctx, cloudvision.NewFilter[cloudvision.Device]())
//	if errors.Is(err, cloudvision.ErrRequest) {
//	    // network or TLS failure
//	}
var (
	ErrNoToken       = &CloudVisionError{Kind: KindNoToken}
	ErrRequest       = &CloudVisionError{Kind: KindRequest}
	ErrEncode        = &CloudVisionError{Kind: KindEncode}
	ErrDecode        = &CloudVisionError{Kind: KindDecode}
	ErrURLParse      = &CloudVisionError{Kind: KindURLParse}
	ErrBadClientPort = &CloudVisionError{Kind: KindBadClientPort}
	ErrStatus        = &CloudVisionError{Kind: KindStatus}
)

// CloudVisionError represents a structured error with operation context
type CloudVisionError struct {
	// Operation name that failed (e.g. "get devices")
	Operation string

	// Kind classifies the failure
	Kind ErrorKind

	// Human-readable error message
	Message string

	// StatusCode is the HTTP status code for KindStatus errors
	StatusCode int

	// Status is the error document returned by the service, if any
	Status *StreamError

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *CloudVisionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Operation == "" {
		return fmt.Sprintf("cloudvision: %s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("cloudvision: %s failed: %s: %s", e.Operation, e.Kind, msg)
}

// Unwrap returns the underlying error
func (e *CloudVisionError) Unwrap() error {
	return e.Err
}

// Is matches any CloudVisionError of the same Kind, so the sentinel values
// work with errors.Is.
func (e *CloudVisionError) Is(target error) bool {
	t, ok := target.(*CloudVisionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// GRPCStatus exposes the service error document as a grpc status, so that
// status.Code(err) works on errors returned by the client.
func (e *CloudVisionError) GRPCStatus() *status.Status {
	if e.Status == nil {
		return status.New(codes.Unknown, e.Error())
	}
	return e.Status.GRPCStatus()
}

func newError(op string, kind ErrorKind, err error) *CloudVisionError {
	return &CloudVisionError{Operation: op, Kind: kind, Err: err}
}

// StreamError is the error document emitted by the service, either as the
// "error" variant of a stream entry or as the body of a failed request.
// Code carries a grpc status code.
type StreamError struct {
	Code    int32             `json:"code"`
	Message string            `json:"message"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// Error implements the error interface
func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %s", codes.Code(e.Code), e.Message)
}

// GRPCCode returns the grpc status code of the error document
func (e *StreamError) GRPCCode() codes.Code {
	return codes.Code(e.Code)
}

// GRPCStatus converts the error document into a grpc status
func (e *StreamError) GRPCStatus() *status.Status {
	return status.New(codes.Code(e.Code), e.Message)
}

// parseStatusBody extracts an error document from a failed response body.
// The gateway answers either {"code":..,"message":..} or
// {"error":{"code":..,"message":..}}; anything else yields nil.
func parseStatusBody(body []byte) *StreamError {
	if !gjson.ValidBytes(body) {
		return nil
	}
	doc := gjson.ParseBytes(body)
	if inner := doc.Get("error"); inner.IsObject() {
		doc = inner
	}
	if !doc.Get("code").Exists() && !doc.Get("message").Exists() {
		return nil
	}
	se := &StreamError{
		Code:    int32(doc.Get("code").Int()),
		Message: doc.Get("message").String(),
	}
	for _, d := range doc.Get("details").Array() {
		se.Details = append(se.Details, json.RawMessage(d.Raw))
	}
	return se
}
