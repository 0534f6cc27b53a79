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
	"sync"
	"syscall"
	"unsafe"

	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/pathutil"
)

// statusNoMoreFiles is STATUS_NO_MORE_FILES, returned once a directory
// enumeration handle's name list is exhausted.
const statusNoMoreFiles = 0x80000006

// dirCursors tracks how far each handle's enumeration has progressed
// across successive non-restart NtQueryDirectoryFile calls. This is a
// Win32-contract concern (the real API fills as many entries as fit per
// call and resumes on the next one) that QueryDirectoryNames deliberately
// doesn't model, since it always returns the complete name list; only the
// native adapter needs to remember where the caller left off.
var dirCursors sync.Map // domain.Handle -> int

// fileNamesInformation mirrors FILE_NAMES_INFORMATION far enough to
// serialize one entry: NextEntryOffset/FileIndex/FileNameLength followed
// by the inline UTF-16 name.
type fileNamesInformation struct {
	NextEntryOffset uint32
	FileIndex       uint32
	FileNameLength  uint32
}

// ntQueryDirectoryFileStdcall is the native NtQueryDirectoryFile
// replacement (§8 scenario 1: enumerate overlay). It resolves the
// handle's backing path via QueryDirectoryNames and fills the caller's
// buffer with as many FILE_NAMES_INFORMATION records as fit, remembering
// the cursor for the next call.
func (s *Set) ntQueryDirectoryFileStdcall(
	fileHandle uintptr,
	event uintptr,
	apcRoutine uintptr,
	apcContext uintptr,
	ioStatusBlock uintptr,
	fileInformation unsafe.Pointer,
	length uint32,
	fileInformationClass uint32,
	returnSingleEntry uint32,
	fileName uintptr,
	restartScan uint32,
) uintptr {
	h := domain.Handle(fileHandle)

	names, err := s.QueryDirectoryNames(h, restartScan != 0)
	if err != nil {
		status, _, _ := syscall.SyscallN(
			s.original("NtQueryDirectoryFile"),
			fileHandle, event, apcRoutine, apcContext, ioStatusBlock,
			uintptr(fileInformation), uintptr(length), uintptr(fileInformationClass),
			uintptr(returnSingleEntry), fileName, uintptr(restartScan),
		)
		return status
	}

	start := 0
	if restartScan == 0 {
		if v, ok := dirCursors.Load(h); ok {
			start = v.(int)
		}
	}
	if start >= len(names) {
		dirCursors.Delete(h)
		return statusNoMoreFiles
	}

	written := writeDirectoryEntries(fileInformation, length, names[start:], returnSingleEntry != 0)
	if written == 0 {
		return statusNoMoreFiles
	}
	dirCursors.Store(h, start+written)

	return 0 // STATUS_SUCCESS
}

// writeDirectoryEntries serializes as many of names as fit within bufLen
// bytes of buf as FILE_NAMES_INFORMATION records, stopping after one entry
// when singleEntry is set, and returns how many it wrote.
func writeDirectoryEntries(buf unsafe.Pointer, bufLen uint32, names []string, singleEntry bool) int {
	offset := uint32(0)
	written := 0
	var prevHeader *fileNamesInformation

	for _, name := range names {
		nameBytes := pathutil.Encode(name, pathutil.UTF16LE)
		recSize := uint32(unsafe.Sizeof(fileNamesInformation{})) + uint32(len(nameBytes))
		recSize = (recSize + 7) &^ 7 // 8-byte align, matching NT's own record padding

		if offset+recSize > bufLen {
			break
		}

		rec := (*fileNamesInformation)(unsafe.Pointer(uintptr(buf) + uintptr(offset)))
		rec.NextEntryOffset = 0
		rec.FileIndex = uint32(written)
		rec.FileNameLength = uint32(len(nameBytes))

		dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(rec))+unsafe.Sizeof(*rec))), len(nameBytes))
		copy(dst, nameBytes)

		if prevHeader != nil {
			prevHeader.NextEntryOffset = recSize
		}
		prevHeader = rec

		offset += recSize
		written++

		if singleEntry {
			break
		}
	}

	return written
}
