// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Inventory resource paths
const (
	DevicePath    = "/api/resources/inventory/v1/Device"
	DeviceAllPath = "/api/resources/inventory/v1/Device/all"
)

// StreamingStatus reports whether a device is streaming telemetry
type StreamingStatus string

const (
	StreamingStatusUnspecified StreamingStatus = "STREAMING_STATUS_UNSPECIFIED"
	StreamingStatusInactive    StreamingStatus = "STREAMING_STATUS_INACTIVE"
	StreamingStatusActive      StreamingStatus = "STREAMING_STATUS_ACTIVE"
)

// UnmarshalText rejects tokens the service does not define
func (s *StreamingStatus) UnmarshalText(text []byte) error {
	v := StreamingStatus(text)
	switch v {
	case "", StreamingStatusUnspecified, StreamingStatusInactive, StreamingStatusActive:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown streaming status %q", string(text))
}

// DeviceKey identifies a device
type DeviceKey struct {
	DeviceID string `json:"deviceId,omitempty"`
}

// Device is an inventory record. Every field is optional on the wire so a
// partially populated Device works as a filter template.
type Device struct {
	Key              *DeviceKey      `json:"key,omitempty"`
	SoftwareVersion  string          `json:"softwareVersion,omitempty"`
	ModelName        string          `json:"modelName,omitempty"`
	HardwareRevision string          `json:"hardwareRevision,omitempty"`
	Fqdn             string          `json:"fqdn,omitempty"`
	Hostname         string          `json:"hostname,omitempty"`
	DomainName       string          `json:"domainName,omitempty"`
	SystemMacAddress string          `json:"systemMacAddress,omitempty"`
	BootTime         time.Time       `json:"bootTime,omitzero"`
	StreamingStatus  StreamingStatus `json:"streamingStatus,omitempty"`
}

// DeviceID returns the key's device id, or "" when the key is unset
func (d Device) DeviceID() string {
	if d.Key == nil {
		return ""
	}
	return d.Key.DeviceID
}

// DeviceResponse is the body of a single-device GET
type DeviceResponse struct {
	Value Device    `json:"value"`
	Time  time.Time `json:"time,omitzero"`
}

// DeviceStreamResponse is one result entry of a device list
type DeviceStreamResponse struct {
	Value Device        `json:"value"`
	Time  time.Time     `json:"time,omitzero"`
	Type  OperationType `json:"type,omitempty"`
}

// OperationType tells how a streamed entry relates to earlier state
type OperationType string

const (
	OperationInitial OperationType = "INITIAL"
	OperationUpdated OperationType = "UPDATED"
	OperationDeleted OperationType = "DELETED"
)

// GetDevice fetches one device by id
//
// Example:
//
//	device, err := client.GetDevice(ctx, "SSJ17200818")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(device.ModelName)
func (c *Client) GetDevice(ctx context.Context, deviceID string, mods ...func(*Req)) (Device, error) {
	const op = "get device"
	query := url.Values{"key.deviceId": []string{deviceID}}.Encode()
	res, err := c.Get(ctx, DevicePath, query, mods...)
	if err != nil {
		return Device{}, withOperation(err, op)
	}
	dr, err := DecodeOne[DeviceResponse](res.Body)
	if err != nil {
		return Device{}, newError(op, KindDecode, err)
	}
	return dr.Value, nil
}

// GetDevices lists the devices matching filter. An empty filter matches
// every device.
//
// Example:
//
//	filter := cloudvision.NewFilter(cloudvision.Device{ModelName: "DCS-7280SR2-48YC6"})
//	devices, err := client.GetDevices(ctx, filter)
func (c *Client) GetDevices(ctx context.Context, filter Filter, mods ...func(*Req)) ([]DeviceStreamResponse, error) {
	return listAll[DeviceStreamResponse](ctx, c, "get devices", DeviceAllPath, filter, mods)
}

// listAll posts filter to a streaming list endpoint and decodes the body
// with decodeStream. Dropped entries are logged, not returned as errors.
func listAll[T any](ctx context.Context, c *Client, op, path string, filter Filter, mods []func(*Req)) ([]T, error) {
	if filter == nil {
		filter = PartialEqFilter[struct{}]{}
	}
	c.logger.Debug(ctx, "CloudVision list request",
		"operation", op,
		"templates", filter.Templates())

	res, err := c.postJSON(ctx, op, path, filter, mods)
	if err != nil {
		return nil, err
	}
	return decodeStream[T](ctx, c, op, res.Body), nil
}

// decodeStream runs DecodeStream on body and reports its stats: always at
// Debug, and at Warn when entries were dropped.
func decodeStream[T any](ctx context.Context, c *Client, op string, body []byte) []T {
	out, stats := DecodeStream[T](body)
	c.logger.Debug(ctx, "CloudVision stream decoded",
		"operation", op,
		"results", stats.Results,
		"errors", stats.Errors,
		"malformed", stats.Malformed)
	if stats.Dropped() > 0 {
		c.logger.Warn(ctx, "CloudVision stream entries dropped",
			"operation", op,
			"dropped", stats.Dropped())
	}
	return out
}
