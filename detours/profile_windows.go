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

package detours

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// getPrivateProfileStringWStdcall redirects the .ini file path argument
// and forwards to the preserved original, which does the actual INI
// parsing (see RedirectProfilePath's doc comment).
func (s *Set) getPrivateProfileStringWStdcall(
	appName, keyName, defaultValue *uint16,
	returnedString uintptr,
	size uint32,
	fileName *uint16,
) uintptr {
	canonical, err := decodeWidePath(fileName)
	if err != nil {
		ret, _, _ := syscall.SyscallN(s.original("GetPrivateProfileStringW"),
			uintptr(unsafe.Pointer(appName)), uintptr(unsafe.Pointer(keyName)),
			uintptr(unsafe.Pointer(defaultValue)), returnedString, uintptr(size),
			uintptr(unsafe.Pointer(fileName)))
		return ret
	}

	target := s.RedirectProfilePath(canonical)
	rewritten, errPtr := windows.UTF16PtrFromString(target)
	if errPtr != nil {
		rewritten = fileName
	}

	ret, _, _ := syscall.SyscallN(s.original("GetPrivateProfileStringW"),
		uintptr(unsafe.Pointer(appName)), uintptr(unsafe.Pointer(keyName)),
		uintptr(unsafe.Pointer(defaultValue)), returnedString, uintptr(size),
		uintptr(unsafe.Pointer(rewritten)))
	return ret
}
