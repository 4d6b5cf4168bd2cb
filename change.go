// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"context"
	"fmt"
	"time"
)

// ChangeControlAllPath lists change control records
const ChangeControlAllPath = "/api/resources/tag/v2/ChangeControl/all"

// StageStatus is the execution state of a change control stage
type StageStatus string

const (
	StageStatusUnspecified StageStatus = "STAGE_STATUS_UNSPECIFIED"
	StageStatusRunning     StageStatus = "STAGE_STATUS_RUNNING"
	StageStatusCompleted   StageStatus = "STAGE_STATUS_COMPLETED"
)

// UnmarshalText rejects tokens the service does not define
func (s *StageStatus) UnmarshalText(text []byte) error {
	v := StageStatus(text)
	switch v {
	case "", StageStatusUnspecified, StageStatusRunning, StageStatusCompleted:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown stage status %q", string(text))
}

// Change is a change control workflow made of named stages
type Change struct {
	Name        string     `json:"name"`
	RootStageID string     `json:"rootStageId"`
	Stages      StageMap   `json:"stages"`
	Notes       string     `json:"notes"`
	Time        *time.Time `json:"time,omitempty"`
	User        *string    `json:"user,omitempty"`
}

// StageMap maps stage ids to stages
type StageMap struct {
	Values map[string]Stage `json:"values"`
}

// RootStage returns the stage named by RootStageID
func (c Change) RootStage() (Stage, bool) {
	s, ok := c.Stages.Values[c.RootStageID]
	return s, ok
}

// Stage is one step of a change
type Stage struct {
	Name   string      `json:"name"`
	Action Action      `json:"action"`
	Rows   string      `json:"rows"`
	Status StageStatus `json:"status"`
	Error  *string     `json:"error,omitempty"`
}

// Action is the work a stage runs
type Action struct {
	Name    string `json:"name"`
	Timeout uint32 `json:"timeout"`
	Args    Arg    `json:"args"`
}

// Arg holds an action's named arguments
type Arg struct {
	Values map[string]string `json:"values"`
}

// ChangeControlKey identifies a change control
type ChangeControlKey struct {
	ID string `json:"id"`
}

// ChangeControl is a change control record
type ChangeControl struct {
	Key    ChangeControlKey `json:"key"`
	Change *Change          `json:"change,omitempty"`
}

// ChangeControlStreamResponse is one result entry of a change control list
type ChangeControlStreamResponse struct {
	Value ChangeControl `json:"value"`
	Time  time.Time     `json:"time,omitzero"`
	Type  OperationType `json:"type,omitempty"`
}

// GetChangeControl returns the raw change control listing as text
func (c *Client) GetChangeControl(ctx context.Context, mods ...func(*Req)) (string, error) {
	res, err := c.Get(ctx, ChangeControlAllPath, "", mods...)
	if err != nil {
		return "", withOperation(err, "get change control")
	}
	return res.String(), nil
}

// GetChanges lists change controls, decoded from the same endpoint as
// GetChangeControl
func (c *Client) GetChanges(ctx context.Context, mods ...func(*Req)) ([]ChangeControlStreamResponse, error) {
	const op = "get changes"
	res, err := c.Get(ctx, ChangeControlAllPath, "", mods...)
	if err != nil {
		return nil, withOperation(err, op)
	}
	return decodeStream[ChangeControlStreamResponse](ctx, c, op, res.Body), nil
}
