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

	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/pathutil"
	"github.com/winoverlay/winoverlay/winapi"
)

// NT CreateDisposition values (ntifs.h), decoded out of the raw uintptr
// argument NtCreateFile hands us.
const (
	ntFileSupersede  = 0
	ntFileOpen       = 1
	ntFileCreate     = 2
	ntFileOpenIf     = 3
	ntFileOverwrite  = 4
	ntFileOverwriteIf = 5
)

func ntDispositionToDomain(nt uint32) domain.Disposition {
	switch nt {
	case ntFileSupersede:
		return domain.DispositionSupersede
	case ntFileCreate:
		return domain.DispositionCreateNew
	case ntFileOpenIf:
		return domain.DispositionOpenAlways
	case ntFileOverwrite:
		return domain.DispositionOverwriteExisting
	case ntFileOverwriteIf:
		return domain.DispositionOverwriteIf
	default: // ntFileOpen and anything unrecognized
		return domain.DispositionOpenExisting
	}
}

// decodeObjectAttributes turns the raw OBJECT_ATTRIBUTES pointer NtCreateFile/
// NtOpenFile receive into a canonicalized path. A non-zero RootDirectory
// means the name is relative to an already-open directory handle; this
// agent only resolves that case when the root directory itself is a
// tracked handle (its registered path becomes the cwd for canonicalization),
// matching how every other detour treats "cwd" as "whatever the caller's
// context already establishes" rather than querying the kernel for it.
func (s *Set) decodeObjectAttributes(objAttrs *winapi.ObjectAttributes) (string, error) {
	if objAttrs == nil || objAttrs.ObjectName == nil {
		return "", domain.NewError(domain.ErrDecodeFailure, "nil OBJECT_ATTRIBUTES/ObjectName")
	}

	cwd := ""
	if objAttrs.RootDirectory != 0 {
		if info, ok := s.Registry.GetByHandle(domain.Handle(objAttrs.RootDirectory)); ok {
			cwd = info.Path
		}
	}

	return pathutil.ToCanonical(objAttrs.ObjectName.Bytes(), pathutil.UTF16LE, cwd)
}

// ntCreateFileStdcall is the native NtCreateFile replacement, bound to a
// callback pointer by Replacements(). It decodes the object name and
// disposition, then resolves the target path and registers the resulting
// handle (§4.1, §4.7, §8 scenarios 2/3/6).
//
// FILE_OPEN (domain.DispositionOpenExisting) is routed through
// OpenExisting rather than ResolveCreate: ResolveCreate's disposition
// table sends DispositionOpenExisting straight to RouteVirtual regardless
// of which side the path actually exists on, since the table only
// encodes create/overwrite semantics. NtCreateFile's FILE_OPEN is the
// path CreateFileW's overwhelmingly common "just open this file" call
// takes, so it needs the same exists-then-fallback-to-real behavior as
// NtOpenFile — otherwise every open of a real-only, un-mirrored path
// under the mount fails outright.
func (s *Set) ntCreateFileStdcall(
	fileHandle *uintptr,
	desiredAccess uint32,
	objAttrs *winapi.ObjectAttributes,
	ioStatusBlock uintptr,
	allocationSize uintptr,
	fileAttributes uint32,
	shareAccess uint32,
	createDisposition uint32,
	createOptions uint32,
	eaBuffer uintptr,
	eaLength uint32,
) uintptr {
	canonical, err := s.decodeObjectAttributes(objAttrs)
	if err != nil {
		return uintptr(winapi.StatusObjectPathNotFound)
	}

	disposition := ntDispositionToDomain(createDisposition)

	var res CreateResult
	if disposition == domain.DispositionOpenExisting {
		res, err = s.OpenExisting(canonical)
		if err != nil {
			return uintptr(winapi.StatusObjectNameNotFound)
		}
	} else {
		res, err = s.ResolveCreate(canonical, disposition)
		if err != nil {
			return uintptr(winapi.StatusObjectNameExists)
		}
	}

	rewritten := *objAttrs
	nameBytes := pathutil.Encode(res.Path, pathutil.UTF16LE)
	rewrittenName := winapi.UnicodeString{
		Length:        uint16(len(nameBytes)),
		MaximumLength: uint16(len(nameBytes)),
		Buffer:        uintptr(unsafe.Pointer(&nameBytes[0])),
	}
	rewritten.ObjectName = &rewrittenName

	status, _, _ := syscall.SyscallN(
		s.original("NtCreateFile"),
		uintptr(unsafe.Pointer(fileHandle)),
		uintptr(desiredAccess),
		uintptr(unsafe.Pointer(&rewritten)),
		ioStatusBlock,
		allocationSize,
		uintptr(fileAttributes),
		uintptr(shareAccess),
		uintptr(createDisposition),
		uintptr(createOptions),
		eaBuffer,
		uintptr(eaLength),
	)

	if winapi.NTSTATUS(status).IsSuccess() {
		s.RegisterHandle(domain.Handle(*fileHandle), res)
	}
	return status
}

// ntOpenFileStdcall is the native NtOpenFile replacement: the same
// redirection as NtCreateFile, but always open-existing semantics, used
// for scenario 6 (opening a virtual-only directory) when the caller omits
// the create-specific parameters.
func (s *Set) ntOpenFileStdcall(
	fileHandle *uintptr,
	desiredAccess uint32,
	objAttrs *winapi.ObjectAttributes,
	ioStatusBlock uintptr,
	shareAccess uint32,
	openOptions uint32,
) uintptr {
	canonical, err := s.decodeObjectAttributes(objAttrs)
	if err != nil {
		return uintptr(winapi.StatusObjectPathNotFound)
	}

	res, err := s.OpenExisting(canonical)
	if err != nil {
		return uintptr(winapi.StatusObjectNameNotFound)
	}

	rewritten := *objAttrs
	nameBytes := pathutil.Encode(res.Path, pathutil.UTF16LE)
	rewrittenName := winapi.UnicodeString{
		Length:        uint16(len(nameBytes)),
		MaximumLength: uint16(len(nameBytes)),
		Buffer:        uintptr(unsafe.Pointer(&nameBytes[0])),
	}
	rewritten.ObjectName = &rewrittenName

	status, _, _ := syscall.SyscallN(
		s.original("NtOpenFile"),
		uintptr(unsafe.Pointer(fileHandle)),
		uintptr(desiredAccess),
		uintptr(unsafe.Pointer(&rewritten)),
		ioStatusBlock,
		uintptr(shareAccess),
		uintptr(openOptions),
	)

	if winapi.NTSTATUS(status).IsSuccess() {
		s.RegisterHandle(domain.Handle(*fileHandle), res)
	}
	return status
}
