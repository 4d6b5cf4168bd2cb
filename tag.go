// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tag resource paths
const (
	TagAllPath                 = "/api/resources/tag/v2/Tag/all"
	TagConfigPath              = "/api/resources/tag/v2/TagConfig"
	TagAssignmentConfigAllPath = "/api/resources/tag/v2/TagAssignmentConfig/all"
)

// ElementType is the kind of network element a tag applies to
type ElementType string

const (
	ElementTypeUnspecified ElementType = "ELEMENT_TYPE_UNSPECIFIED"
	ElementTypeDevice      ElementType = "ELEMENT_TYPE_DEVICE"
	ElementTypeInterface   ElementType = "ELEMENT_TYPE_INTERFACE"
)

// UnmarshalText rejects tokens the service does not define
func (e *ElementType) UnmarshalText(text []byte) error {
	v := ElementType(text)
	switch v {
	case "", ElementTypeUnspecified, ElementTypeDevice, ElementTypeInterface:
		*e = v
		return nil
	}
	return fmt.Errorf("unknown element type %q", string(text))
}

// CreatorType tells who created a tag
type CreatorType string

const (
	CreatorTypeUnspecified CreatorType = "CREATOR_TYPE_UNSPECIFIED"
	CreatorTypeSystem      CreatorType = "CREATOR_TYPE_SYSTEM"
	CreatorTypeUser        CreatorType = "CREATOR_TYPE_USER"
	CreatorTypeExternal    CreatorType = "CREATOR_TYPE_EXTERNAL"
)

// UnmarshalText rejects tokens the service does not define
func (c *CreatorType) UnmarshalText(text []byte) error {
	v := CreatorType(text)
	switch v {
	case "", CreatorTypeUnspecified, CreatorTypeSystem, CreatorTypeUser, CreatorTypeExternal:
		*c = v
		return nil
	}
	return fmt.Errorf("unknown creator type %q", string(text))
}

// TagKey identifies a tag. All fields are optional, so a TagKey doubles as
// a partial-match template.
type TagKey struct {
	WorkspaceID string      `json:"workspaceId,omitempty"`
	ElementType ElementType `json:"elementType,omitempty"`
	Label       string      `json:"label,omitempty"`
	Value       string      `json:"value,omitempty"`
}

// NewTagKey returns an empty key, which matches every tag
func NewTagKey() TagKey {
	return TagKey{}
}

// WithWorkspaceID returns a copy of the key with the workspace id set
func (k TagKey) WithWorkspaceID(id string) TagKey {
	k.WorkspaceID = id
	return k
}

// WithElementType returns a copy of the key with the element type set
func (k TagKey) WithElementType(t ElementType) TagKey {
	k.ElementType = t
	return k
}

// WithLabel returns a copy of the key with label and value set
func (k TagKey) WithLabel(label, value string) TagKey {
	k.Label = label
	k.Value = value
	return k
}

// NewWorkspaceID returns a fresh random workspace id
func NewWorkspaceID() string {
	return uuid.NewString()
}

// Tag is a label/value pair that can be attached to devices or interfaces
type Tag struct {
	Key         *TagKey     `json:"key,omitempty"`
	CreatorType CreatorType `json:"creatorType,omitempty"`
}

// NewTag builds a tag from key
func NewTag(key TagKey) Tag {
	return Tag{Key: &key}
}

// Label returns the key's label, or "" when the key is unset
func (t Tag) Label() string {
	if t.Key == nil {
		return ""
	}
	return t.Key.Label
}

// TagStreamResponse is one result entry of a tag list
type TagStreamResponse struct {
	Value Tag           `json:"value"`
	Time  time.Time     `json:"time,omitzero"`
	Type  OperationType `json:"type,omitempty"`
}

// TagConfig creates (or, with Remove set, removes) a tag in a workspace
type TagConfig struct {
	Key    TagKey `json:"key"`
	Remove *bool  `json:"remove,omitempty"`
}

// NewTagConfig builds a tag configuration
func NewTagConfig(key TagKey, remove bool) TagConfig {
	return TagConfig{Key: key, Remove: &remove}
}

// TagConfigResponse is the body returned when a tag configuration is written
type TagConfigResponse struct {
	Value TagConfig `json:"value"`
	Time  time.Time `json:"time,omitzero"`
}

// TagAssignmentKey identifies the assignment of a tag to a device or
// interface. Every field is sent on the wire.
type TagAssignmentKey struct {
	WorkspaceID string      `json:"workspaceId"`
	ElementType ElementType `json:"elementType"`
	Label       string      `json:"label"`
	Value       string      `json:"value"`
	DeviceID    string      `json:"deviceId"`
	InterfaceID string      `json:"interfaceId"`
}

// TagAssignmentConfig assigns (or, with Remove set, unassigns) a tag
type TagAssignmentConfig struct {
	Key    TagAssignmentKey `json:"key"`
	Remove *bool            `json:"remove,omitempty"`
}

// TagAssignmentConfigStreamResponse is one result entry of a tag
// assignment list
type TagAssignmentConfigStreamResponse struct {
	Value TagAssignmentConfig `json:"value"`
	Time  time.Time           `json:"time,omitzero"`
	Type  OperationType       `json:"type,omitempty"`
}

// GetTags lists the tags matching filter
//
// Example:
//
//	key := cloudvision.NewTagKey().WithLabel("router_bgp.as", "65002")
//	tags, err := client.GetTags(ctx, cloudvision.NewFilter(cloudvision.NewTag(key)))
func (c *Client) GetTags(ctx context.Context, filter Filter, mods ...func(*Req)) ([]TagStreamResponse, error) {
	return listAll[TagStreamResponse](ctx, c, "get tags", TagAllPath, filter, mods)
}

// GetAllTags lists every tag
func (c *Client) GetAllTags(ctx context.Context, mods ...func(*Req)) ([]TagStreamResponse, error) {
	filter := NewFilter(NewTag(NewTagKey()))
	return listAll[TagStreamResponse](ctx, c, "get all tags", TagAllPath, filter, mods)
}

// CreateTag writes a tag configuration and returns the stored value
//
// Example:
//
//	key := cloudvision.NewTagKey().
//	    WithWorkspaceID(workspaceID).
//	    WithElementType(cloudvision.ElementTypeDevice).
//	    WithLabel("createtag", "foo")
//	res, err := client.CreateTag(ctx, cloudvision.NewTagConfig(key, false))
func (c *Client) CreateTag(ctx context.Context, cfg TagConfig, mods ...func(*Req)) (TagConfigResponse, error) {
	const op = "create tag"
	res, err := c.postJSON(ctx, op, TagConfigPath, cfg, mods)
	if err != nil {
		return TagConfigResponse{}, err
	}
	tcr, err := DecodeOne[TagConfigResponse](res.Body)
	if err != nil {
		return TagConfigResponse{}, newError(op, KindDecode, err)
	}
	c.logger.Info(ctx, "CloudVision tag configured",
		"workspace", cfg.Key.WorkspaceID,
		"label", cfg.Key.Label)
	return tcr, nil
}

// GetTagAssignmentConfig lists the tag assignment configurations matching
// filter
func (c *Client) GetTagAssignmentConfig(ctx context.Context, filter Filter, mods ...func(*Req)) ([]TagAssignmentConfigStreamResponse, error) {
	return listAll[TagAssignmentConfigStreamResponse](ctx, c, "get tag assignment config", TagAssignmentConfigAllPath, filter, mods)
}
