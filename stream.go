// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StreamResult is one entry of a streaming response: either
// {"result": {...}} or {"error": {...}}.
type StreamResult[T any] struct {
	Result *T           `json:"result,omitempty"`
	Error  *StreamError `json:"error,omitempty"`
}

// DecodeStats counts what DecodeStream kept and dropped
type DecodeStats struct {
	// Results is the number of result entries returned
	Results int

	// Errors is the number of well-formed error entries dropped
	Errors int

	// Malformed is the number of fragments that did not decode, or decoded
	// to neither variant
	Malformed int
}

// Dropped returns the number of entries that were not returned
func (s DecodeStats) Dropped() int {
	return s.Errors + s.Malformed
}

// DecodeStream decodes a response body made of whitespace-separated JSON
// documents, each a StreamResult[T], and returns the result payloads in
// arrival order.
//
// A fragment that does not parse, that is an error entry, or that carries
// neither variant is skipped; decoding continues with the next document.
// One bad entry never fails the batch.
//
// Example:
//
//	body := []byte(`{"result":{"value":{"key":{"deviceId":"A"}}}}
//	{"error":{"code":13,"message":"internal"}}
//	{"result":{"value":{"key":{"deviceId":"B"}}}}`)
//	devices, stats := cloudvision.DecodeStream[cloudvision.DeviceStreamResponse](body)
//	// len(devices) == 2, stats.Errors == 1
func DecodeStream[T any](body []byte) ([]T, DecodeStats) {
	var out []T
	var stats DecodeStats

	forEachValue(body, func(raw []byte) {
		var entry StreamResult[T]
		if err := json.Unmarshal(raw, &entry); err != nil {
			stats.Malformed++
			return
		}
		switch {
		case entry.Result != nil:
			out = append(out, *entry.Result)
			stats.Results++
		case entry.Error != nil:
			stats.Errors++
		default:
			stats.Malformed++
		}
	}, func() {
		stats.Malformed++
	})

	return out, stats
}

// DecodeOne decodes a body holding exactly one JSON document into T.
// Trailing data after the document is an error.
func DecodeOne[T any](body []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode response: %w", err)
	}
	if rest := bytes.TrimSpace(body[dec.InputOffset():]); len(rest) > 0 {
		return v, fmt.Errorf("decode response: unexpected data after JSON document at offset %d", dec.InputOffset())
	}
	return v, nil
}

// forEachValue walks body one JSON value at a time. Every syntactically
// complete value is passed to onValue. When a value does not parse,
// onMalformed is called and the walk resumes at the next '{' that can open
// a top-level document (see resync).
func forEachValue(body []byte, onValue func(raw []byte), onMalformed func()) {
	pos := 0
	for {
		pos += countSpace(body[pos:])
		if pos >= len(body) {
			return
		}

		dec := json.NewDecoder(bytes.NewReader(body[pos:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if onMalformed != nil {
				onMalformed()
			}
			next := resync(body, pos)
			if next < 0 {
				return
			}
			pos = next
			continue
		}

		pos += int(dec.InputOffset())
		onValue(raw)
	}
}

// resync returns the offset of the first '{' after the broken fragment
// starting at from that can open a top-level document, or -1. A candidate is
// either at brace depth zero outside any string, or the first '{' of a line.
// Objects nested inside the broken fragment are never candidates.
func resync(body []byte, from int) int {
	depth := 0
	inString, escaped, lineStart := false, false, false

	for i := from; i < len(body); i++ {
		c := body[i]
		if c == '\n' {
			// JSON strings cannot span lines
			inString, escaped, lineStart = false, false, true
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case ' ', '\t', '\r':
			continue
		case '"':
			inString = true
		case '{':
			if i > from && (depth == 0 || lineStart) {
				return i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		lineStart = false
	}
	return -1
}

func countSpace(b []byte) int {
	n := 0
	for n < len(b) {
		switch b[n] {
		case ' ', '\t', '\n', '\r':
			n++
		default:
			return n
		}
	}
	return n
}
