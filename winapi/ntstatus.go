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

// Package winapi is the ambient Windows syscall plumbing §4.9 of
// SPEC_FULL.md calls for: NTSTATUS/Win32 error constants for the native
// return convention, UNICODE_STRING/OBJECT_ATTRIBUTES decode helpers for
// the path canonicalizer, and golang.org/x/sys/windows-based wrappers for
// the injector's process-spawn/memory-write/remote-thread sequence.
// Grounded on the same "thin wrapper over the platform ABI, panics never
// escape to the caller" posture the teacher's sysio.ioNodeFile applies to
// os.File.
package winapi

// NTSTATUS is the 32-bit status code NT-layer entry points return.
type NTSTATUS uint32

// A small slice of the taxonomy §7's "native return convention" needs to
// translate domain.ErrorKind into: success, not-found and name-collision,
// which is all the disposition table and handle registry ever produce.
const (
	StatusSuccess          NTSTATUS = 0x00000000
	StatusObjectNameExists NTSTATUS = 0xC0000035
	StatusObjectNameNotFound NTSTATUS = 0xC0000034
	StatusObjectPathNotFound NTSTATUS = 0xC000003A
	StatusUnsuccessful     NTSTATUS = 0xC0000001
)

// IsSuccess reports whether s represents success; NTSTATUS codes are
// success iff their top two bits are 0b00 or 0b01 (information), per the
// NT status-code layout.
func (s NTSTATUS) IsSuccess() bool {
	return s>>30 == 0 || s>>30 == 1
}

// Win32 error codes used by the Win32-surface entry points (ERROR_*,
// distinct numbering from NTSTATUS).
const (
	ErrorSuccess        uint32 = 0
	ErrorFileNotFound   uint32 = 2
	ErrorPathNotFound   uint32 = 3
	ErrorAlreadyExists  uint32 = 183
	ErrorFileExists     uint32 = 80
	ErrorAccessDenied   uint32 = 5
)

// InvalidHandleValue is the Win32 sentinel for a failed handle-returning
// call (all bits set, same representation as domain.InvalidHandle).
const InvalidHandleValue = ^uintptr(0)
