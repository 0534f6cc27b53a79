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

package pathutil

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// utf16LE is the shared transcoder for the wide/NT-native path encoding;
// IgnoreBOM since raw path buffers never carry one.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Encoding identifies the wire representation of a raw path buffer handed
// in by a detour (the "A" vs "W" Win32 entry-point families, and the
// always-wide NT layer).
type Encoding int

const (
	// UTF8 is used by the ANSI ("A"-suffixed) Win32 entry points, decoded
	// per the active code page; we treat it as UTF-8 since sysbox-fs'
	// teacher lineage never has to deal with legacy code pages either.
	UTF8 Encoding = iota
	// UTF16LE is used by the wide ("W"-suffixed) Win32 entry points and by
	// every NT-native entry point (UNICODE_STRING).
	UTF16LE
)

// ErrInvalidPath reports a lexical normalization underflow: more ".."
// components than the path has left to cancel.
var ErrInvalidPath = errors.New("pathutil: invalid path (underflow)")

// Decode interprets raw as a path string in the given encoding.
func Decode(raw []byte, enc Encoding) (string, error) {
	switch enc {
	case UTF8:
		return string(raw), nil
	case UTF16LE:
		if len(raw)%2 != 0 {
			return "", errors.New("pathutil: odd-length UTF-16LE buffer")
		}
		decoded, err := utf16LE.NewDecoder().Bytes(trimNulTermBytes(raw))
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	default:
		return "", errors.New("pathutil: unknown encoding")
	}
}

// Encode is the inverse of Decode, used when a detour needs to bundle a
// rewritten path back into the native encoding before calling the
// preserved original (§4.6 step 3).
func Encode(s string, enc Encoding) []byte {
	switch enc {
	case UTF8:
		return []byte(s)
	case UTF16LE:
		out, err := utf16LE.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

// trimNulTermBytes cuts raw at its first UTF-16LE NUL code unit, so a
// NUL-terminated buffer decodes without its terminator; a buffer with no
// NUL is returned whole.
func trimNulTermBytes(raw []byte) []byte {
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			return raw[:i]
		}
	}
	return raw
}
