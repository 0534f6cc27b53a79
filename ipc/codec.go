//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package ipc implements the wire codec (C1) and lifecycle/message
// listener (C11): a COBS-framed byte stream carrying CBOR-encoded
// domain.Message values between the agent (inside the target process) and
// the injector driver. COBS is hand-rolled here — no repo in the example
// pack ships a self-synchronizing framing codec, see DESIGN.md — while
// the structured payload itself rides on fxamacker/cbor/v2, already used
// by jingkaihe-matchlock for exactly this kind of compact self-describing
// encoding.
package ipc

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/winoverlay/winoverlay/domain"
)

// frameDelimiter is the single zero byte COBS reserves to mark frame
// boundaries in the byte stream.
const frameDelimiter = 0x00

// maxRun is the largest zero-free chunk one COBS code byte can describe
// (0xFF means "254 data bytes, no implicit zero follows").
const maxRun = 254

// cobsEncode implements Consistent Overhead Byte Stuffing: it replaces
// every zero byte in data with a length-prefixed run boundary, so the
// encoded output is guaranteed never to contain a zero byte itself — the
// zero byte Encode appends afterward can then serve as an unambiguous
// frame delimiter no matter what data contains.
func cobsEncode(data []byte) []byte {
	var out []byte

	for {
		limit := maxRun
		if limit > len(data) {
			limit = len(data)
		}

		zeroIdx := bytes.IndexByte(data[:limit], frameDelimiter)
		if zeroIdx == -1 {
			if limit == len(data) {
				// final, possibly-short run: no zero follows it.
				out = append(out, byte(limit+1))
				out = append(out, data[:limit]...)
				return out
			}
			// a full maxRun-byte run with no zero in it yet.
			out = append(out, 0xFF)
			out = append(out, data[:limit]...)
			data = data[limit:]
			continue
		}

		out = append(out, byte(zeroIdx+1))
		out = append(out, data[:zeroIdx]...)
		data = data[zeroIdx+1:]
	}
}

// cobsDecode reverses cobsEncode. It returns an error if encoded contains
// a structurally invalid code byte (one that would read past the end of
// the buffer) — the self-synchronizing property COBS is chosen for means
// a corrupt frame is detected here rather than silently misparsed.
func cobsDecode(encoded []byte) ([]byte, error) {
	var out []byte
	i := 0

	for i < len(encoded) {
		code := int(encoded[i])
		if code == 0 {
			return nil, fmt.Errorf("ipc: cobs: zero code byte at offset %d", i)
		}

		end := i + code
		if end > len(encoded) {
			return nil, fmt.Errorf("ipc: cobs: code %d overruns buffer at offset %d", code, i)
		}

		out = append(out, encoded[i+1:end]...)
		i = end

		// code < 0xFF means the original run ended because a zero byte
		// was there; re-insert it unless this was the final run (no
		// more encoded bytes follow).
		if code < maxRun+1 && i < len(encoded) {
			out = append(out, frameDelimiter)
		}
	}

	return out, nil
}

// Encode serializes msg as CBOR and returns a complete COBS frame
// terminated by the 0x00 delimiter, ready to write to the transport.
func Encode(msg domain.Message) ([]byte, error) {
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("ipc: encoding message: %w", err)
	}

	frame := cobsEncode(payload)
	frame = append(frame, frameDelimiter)
	return frame, nil
}

// Decode reverses Encode given one complete frame (delimiter excluded).
func Decode(frame []byte) (domain.Message, error) {
	payload, err := cobsDecode(frame)
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("ipc: decoding message: %w", err)
	}
	return msg, nil
}

// SplitFrames splits a buffer containing zero or more complete,
// delimiter-terminated frames plus at most one trailing partial frame,
// returning the complete frames and the unconsumed remainder.
func SplitFrames(buf []byte) (frames [][]byte, remainder []byte) {
	for {
		idx := bytes.IndexByte(buf, frameDelimiter)
		if idx < 0 {
			return frames, buf
		}
		frames = append(frames, buf[:idx])
		buf = buf[idx+1:]
	}
}
