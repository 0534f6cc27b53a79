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

package domain

import (
	"fmt"
	"runtime"
)

// ErrorKind is the §7 error taxonomy.
type ErrorKind int

const (
	ErrFunctionNotFound ErrorKind = iota
	ErrFunctionPtrNull
	ErrTrampolineFailure
	ErrDecodeFailure
	ErrCanonicalizeFailure
	ErrNoVirtualPath
	ErrOriginalCallFailure
	ErrMapPoisoned
)

func (k ErrorKind) String() string {
	switch k {
	case ErrFunctionNotFound:
		return "FunctionNotFound"
	case ErrFunctionPtrNull:
		return "FunctionPtrNull"
	case ErrTrampolineFailure:
		return "TrampolineFailure"
	case ErrDecodeFailure:
		return "DecodeFailure"
	case ErrCanonicalizeFailure:
		return "CanonicalizeFailure"
	case ErrNoVirtualPath:
		return "NoVirtualPath"
	case ErrOriginalCallFailure:
		return "OriginalCallFailure"
	case ErrMapPoisoned:
		return "MapPoisoned"
	default:
		return "Unknown"
	}
}

// DebugBuild gates source-location capture on errors. It is a plain
// package variable, on by default; nothing in the build sets it, since
// the agent has no release/debug split.
var DebugBuild = true

// Error carries an ErrorKind, a human-readable message, and — in debug
// builds — the file/line that raised it, to support triage (§7).
type Error struct {
	Kind ErrorKind
	Msg  string
	File string
	Line int
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (%s:%d)", e.Kind, e.Msg, e.File, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// NewError builds an Error, capturing the caller's location when
// DebugBuild is set.
func NewError(kind ErrorKind, msg string) *Error {
	e := &Error{Kind: kind, Msg: msg}
	if DebugBuild {
		if _, file, line, ok := runtime.Caller(1); ok {
			e.File, e.Line = file, line
		}
	}
	return e
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := err.(*Error)
	return ok && de.Kind == kind
}
