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

import "syscall"

// Replacements returns the export-name -> callback-pointer map
// agent.Init hands to hook.Installer.BuildTable: one syscall.NewCallback
// trampoline per native adapter this package implements. Entries in
// hook.WindowsTable with no corresponding key here stay listed-but-
// unpatched, same as any other nil-Install entry (see hook/table_windows.go).
func (s *Set) Replacements() map[string]uintptr {
	return map[string]uintptr{
		"NtCreateFile":          syscall.NewCallback(s.ntCreateFileStdcall),
		"NtOpenFile":            syscall.NewCallback(s.ntOpenFileStdcall),
		"NtClose":               syscall.NewCallback(s.ntCloseStdcall),
		"NtQueryDirectoryFile":  syscall.NewCallback(s.ntQueryDirectoryFileStdcall),
		"DeleteFileW":           syscall.NewCallback(s.deleteFileWStdcall),
		"CreateDirectoryW":      syscall.NewCallback(s.createDirectoryWStdcall),
		"RemoveDirectoryW":      syscall.NewCallback(s.removeDirectoryWStdcall),
		"GetFileAttributesW":    syscall.NewCallback(s.getFileAttributesWStdcall),
		"SetFileAttributesW":    syscall.NewCallback(s.setFileAttributesWStdcall),
		"MoveFileW":             syscall.NewCallback(s.moveFileWStdcall),
		"MoveFileExW":           syscall.NewCallback(s.moveFileExWStdcall),
		"MoveFileWithProgressW": syscall.NewCallback(s.moveFileWithProgressWStdcall),
		"CopyFileExW":           syscall.NewCallback(s.copyFileExWStdcall),
		"GetPrivateProfileStringW": syscall.NewCallback(s.getPrivateProfileStringWStdcall),
	}
}
