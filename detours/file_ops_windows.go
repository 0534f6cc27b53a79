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

	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/pathutil"
)

func decodeWidePath(p *uint16) (string, error) {
	s, err := windows.UTF16PtrToString(p)
	if err != nil {
		return "", err
	}
	return pathutil.Canonicalize(s, "")
}

// deleteFileWStdcall implements §8 scenario 4: delete-file redirects to
// whichever side the path resolves to and forwards through the preserved
// original.
func (s *Set) deleteFileWStdcall(fileName *uint16) uintptr {
	canonical, err := decodeWidePath(fileName)
	if err != nil {
		return 0
	}

	target, _ := s.redirectOrSame(canonical)
	rewritten, errPtr := windows.UTF16PtrFromString(target)
	if errPtr != nil {
		return 0
	}

	ret, _, _ := syscall.SyscallN(s.original("DeleteFileW"), uintptr(unsafe.Pointer(rewritten)))
	return ret
}

// createDirectoryWStdcall implements §8 scenarios 2/3: create-new
// routing via ResolveCreate, forwarding through the preserved original
// against whichever path ResolveCreate chose.
func (s *Set) createDirectoryWStdcall(pathName *uint16, securityAttributes uintptr) uintptr {
	canonical, err := decodeWidePath(pathName)
	if err != nil {
		return 0
	}

	res, err := s.ResolveCreate(canonical, domain.DispositionCreateNew)
	if err != nil {
		return 0
	}

	rewritten, errPtr := windows.UTF16PtrFromString(res.Path)
	if errPtr != nil {
		return 0
	}

	ret, _, _ := syscall.SyscallN(s.original("CreateDirectoryW"), uintptr(unsafe.Pointer(rewritten)), securityAttributes)
	return ret
}

// removeDirectoryWStdcall mirrors deleteFileWStdcall for directories.
func (s *Set) removeDirectoryWStdcall(pathName *uint16) uintptr {
	canonical, err := decodeWidePath(pathName)
	if err != nil {
		return 0
	}

	target, _ := s.redirectOrSame(canonical)
	rewritten, errPtr := windows.UTF16PtrFromString(target)
	if errPtr != nil {
		return 0
	}

	ret, _, _ := syscall.SyscallN(s.original("RemoveDirectoryW"), uintptr(unsafe.Pointer(rewritten)))
	return ret
}

// getFileAttributesWStdcall redirects the query path, then forwards.
func (s *Set) getFileAttributesWStdcall(fileName *uint16) uintptr {
	canonical, err := decodeWidePath(fileName)
	if err != nil {
		return windapiInvalidFileAttributes
	}

	target, _ := s.redirectOrSame(canonical)
	rewritten, errPtr := windows.UTF16PtrFromString(target)
	if errPtr != nil {
		return windapiInvalidFileAttributes
	}

	ret, _, _ := syscall.SyscallN(s.original("GetFileAttributesW"), uintptr(unsafe.Pointer(rewritten)))
	return ret
}

// setFileAttributesWStdcall redirects the target path, then forwards.
func (s *Set) setFileAttributesWStdcall(fileName *uint16, attrs uint32) uintptr {
	canonical, err := decodeWidePath(fileName)
	if err != nil {
		return 0
	}

	target, _ := s.redirectOrSame(canonical)
	rewritten, errPtr := windows.UTF16PtrFromString(target)
	if errPtr != nil {
		return 0
	}

	ret, _, _ := syscall.SyscallN(s.original("SetFileAttributesW"), uintptr(unsafe.Pointer(rewritten)), uintptr(attrs))
	return ret
}

// windapiInvalidFileAttributes is INVALID_FILE_ATTRIBUTES (all bits set).
const windapiInvalidFileAttributes = 0xFFFFFFFF
