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

// Handle is an opaque kernel-returned token referring to an open file or
// directory (the Win32 HANDLE, which is pointer-sized). Equality between
// handles is always bitwise.
type Handle uintptr

// InvalidHandle is the sentinel returned by Win32 APIs on failure
// (INVALID_HANDLE_VALUE is all-bits-set).
const InvalidHandle Handle = ^Handle(0)

// HandleInfo is one entry in the handle registry (C4). It is shared by
// reference between the handle-keyed and path-keyed indices and, once
// inserted, is never mutated: a stale entry is replaced only by a
// remove-then-insert.
type HandleInfo struct {
	Handle   Handle
	Path     string
	Rerouted bool
}

// HandleRegistry is the bidirectional map described in §4.3. Implementations
// must guarantee: no two entries share a handle value, and if a handle-keyed
// entry exists its path-keyed counterpart exists too.
type HandleRegistry interface {
	Insert(h Handle, path string, rerouted bool) bool
	GetByHandle(h Handle) (*HandleInfo, bool)
	GetByPath(path string) (*HandleInfo, bool)
	RemoveByHandle(h Handle) (*HandleInfo, bool)
}

// QueryDuplicates is the second-handle tracker described in §4.4.
type QueryDuplicates interface {
	// Acquire returns the handle that should back a directory-query call:
	// an existing duplicate, a freshly opened one, or the original handle
	// when no redirection applies or the un-hooked open failed.
	Acquire(original Handle, restartScan bool, resolved string, rerouted bool, open func(path string) (Handle, error)) Handle

	// Release drops any duplicate tracked for original and reports it so
	// the caller (the close detour) can close it before forwarding.
	Release(original Handle) (dup Handle, ok bool)
}
