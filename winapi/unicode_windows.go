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

//go:build windows

package winapi

import "unsafe"

// UnicodeString mirrors the NT UNICODE_STRING layout: a byte length, a
// byte capacity, and a pointer to UTF-16 code units (not NUL-terminated;
// Length is authoritative).
type UnicodeString struct {
	Length        uint16
	MaximumLength uint16
	_             [4]byte // alignment padding to keep Buffer 8-byte aligned on amd64
	Buffer        uintptr
}

// Bytes returns the raw UTF-16LE bytes the NT layer handed us, ready for
// pathutil.ToCanonical(raw, pathutil.UTF16LE, cwd).
func (u *UnicodeString) Bytes() []byte {
	if u.Buffer == 0 || u.Length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(u.Buffer)), int(u.Length))
}

// ObjectAttributes mirrors the NT OBJECT_ATTRIBUTES layout far enough to
// reach ObjectName and RootDirectory, the two fields
// detours/nt_create_file_windows.go needs: a handle-relative path is RootDirectory-relative rather than
// absolute, and canonicalization must account for that (see
// pathutil.Canonicalize's cwd parameter, substituted with the root
// directory's registered path when RootDirectory is non-zero).
type ObjectAttributes struct {
	Length                   uint32
	RootDirectory            uintptr
	ObjectName               *UnicodeString
	Attributes               uint32
	SecurityDescriptor       uintptr
	SecurityQualityOfService uintptr
}
