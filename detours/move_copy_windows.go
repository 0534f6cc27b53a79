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
)

// moveFileWStdcall implements §8 scenario 5: move-across-names-within-
// mount. Both endpoints are redirected independently before the call
// reaches MoveFile's core logic.
func (s *Set) moveFileWStdcall(existing, new *uint16) uintptr {
	return s.moveCore(existing, new, nil)
}

// moveFileExWStdcall adds MoveFileEx's flags parameter, which this detour
// ignores — the disposition table governs overwrite semantics at create
// time, not at move time (§9).
func (s *Set) moveFileExWStdcall(existing, new *uint16, flags uint32) uintptr {
	return s.moveCore(existing, new, nil)
}

// moveFileWithProgressWStdcall adds the progress-callback parameters;
// progressRoutine/data are driven through MoveFileWithProgress's
// ProgressFunc bridge,
// flags are ignored, and the preserved original is never called.
func (s *Set) moveFileWithProgressWStdcall(existing, new *uint16, progressRoutine, data uintptr, flags uint32) uintptr {
	progress := func(total, transferred int64) bool {
		if progressRoutine == 0 {
			return true
		}
		ret, _, _ := syscall.SyscallN(progressRoutine,
			uintptr(total), uintptr(transferred), uintptr(total), uintptr(transferred),
			0, 0, 0, uintptr(unsafe.Pointer(existing)), data)
		return ret == 0 // PROGRESS_CONTINUE
	}
	return s.moveCore(existing, new, progress)
}

func (s *Set) moveCore(existing, new *uint16, progress ProgressFunc) uintptr {
	src, err := decodeWidePath(existing)
	if err != nil {
		return 0
	}
	dst, err := decodeWidePath(new)
	if err != nil {
		return 0
	}

	var moveErr error
	if progress != nil {
		moveErr = s.MoveFileWithProgress(src, dst, progress)
	} else {
		moveErr = s.MoveFile(src, dst)
	}
	if moveErr != nil {
		return 0
	}
	return 1
}

// copyFileExWStdcall implements copy-file (with progress passthrough).
func (s *Set) copyFileExWStdcall(existing, new *uint16, progressRoutine, data uintptr, cancel *int32, copyFlags uint32) uintptr {
	src, err := decodeWidePath(existing)
	if err != nil {
		return 0
	}
	dst, err := decodeWidePath(new)
	if err != nil {
		return 0
	}

	progress := func(total, transferred int64) bool {
		if cancel != nil && *cancel != 0 {
			return false
		}
		if progressRoutine == 0 {
			return true
		}
		ret, _, _ := syscall.SyscallN(progressRoutine,
			uintptr(total), uintptr(transferred), uintptr(total), uintptr(transferred),
			0, 0, 0, uintptr(unsafe.Pointer(existing)), data)
		return ret == 0
	}

	if err := s.CopyFile(src, dst, progress); err != nil {
		return 0
	}
	return 1
}
