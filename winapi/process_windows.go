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

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// A handful of kernel32 exports (VirtualAllocEx, WriteProcessMemory,
// CreateRemoteThread, OpenThread, ResumeThread) aren't pre-wrapped by
// golang.org/x/sys/windows the way OpenProcess/CreateProcess are; we
// reach them the same way the rest of the ecosystem does when a function
// isn't in the generated syscall tables — a lazy-bound DLL proc.
var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx   = kernel32.NewProc("VirtualAllocEx")
	procWriteProcessMem  = kernel32.NewProc("WriteProcessMemory")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procOpenThread       = kernel32.NewProc("OpenThread")
	procResumeThread     = kernel32.NewProc("ResumeThread")
)

const (
	memCommit            = 0x1000
	memReserve           = 0x2000
	pageExecuteReadWrite = 0x40
	threadSuspendResume  = 0x0002
)

// SuspendedProcess is the handle/PID pair the injector driver (C10) needs
// to resume once the agent image and config have been transferred.
type SuspendedProcess struct {
	Handle    windows.Handle
	ThreadID  uint32
	ProcessID uint32
}

// SpawnSuspended launches path with args in workingDir, held with its
// primary thread suspended so every detour is armed before any of the
// target's own code runs (§4.10 step 1).
func SpawnSuspended(path string, args []string, workingDir string) (*SuspendedProcess, error) {
	cmdLine, err := windows.UTF16PtrFromString(buildCommandLine(path, args))
	if err != nil {
		return nil, fmt.Errorf("winapi: encoding command line: %w", err)
	}

	var workDirPtr *uint16
	if workingDir != "" {
		workDirPtr, err = windows.UTF16PtrFromString(workingDir)
		if err != nil {
			return nil, fmt.Errorf("winapi: encoding working dir: %w", err)
		}
	}

	var si windows.StartupInfo
	var pi windows.ProcessInformation
	si.Cb = uint32(unsafe.Sizeof(si))

	err = windows.CreateProcess(
		nil,
		cmdLine,
		nil,
		nil,
		false,
		windows.CREATE_SUSPENDED,
		nil,
		workDirPtr,
		&si,
		&pi,
	)
	if err != nil {
		return nil, fmt.Errorf("winapi: CreateProcess: %w", err)
	}

	return &SuspendedProcess{Handle: pi.Process, ThreadID: pi.ThreadId, ProcessID: pi.ProcessId}, nil
}

// AttachByPID opens an existing process for the full access the injector
// needs to write its agent image and start a remote thread (§4.10 step 1,
// attach subcommand).
func AttachByPID(pid uint32) (windows.Handle, error) {
	h, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, pid)
	if err != nil {
		return 0, fmt.Errorf("winapi: OpenProcess(%d): %w", pid, err)
	}
	return h, nil
}

// WriteRemote allocates len(data) bytes of RWX memory in proc and copies
// data into it, returning the remote address — the standard "allocate,
// write, execute" shape for handing a DLL path or config blob to a remote
// process.
func WriteRemote(proc windows.Handle, data []byte) (uintptr, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("winapi: WriteRemote: empty payload")
	}

	addr, _, errno := procVirtualAllocEx.Call(
		uintptr(proc), 0, uintptr(len(data)), memCommit|memReserve, pageExecuteReadWrite,
	)
	if addr == 0 {
		return 0, fmt.Errorf("winapi: VirtualAllocEx: %w", errno)
	}

	var written uintptr
	ok, _, errno := procWriteProcessMem.Call(
		uintptr(proc), addr, uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)), uintptr(unsafe.Pointer(&written)),
	)
	if ok == 0 {
		return 0, fmt.Errorf("winapi: WriteProcessMemory: %w", errno)
	}
	if written != uintptr(len(data)) {
		return 0, fmt.Errorf("winapi: WriteProcessMemory wrote %d of %d bytes", written, len(data))
	}

	return addr, nil
}

// RunRemoteThread starts a thread in proc at start with the given
// parameter, used both to invoke LoadLibrary on the agent DLL and to
// invoke its exported Entry point afterward.
func RunRemoteThread(proc windows.Handle, start, parameter uintptr) (windows.Handle, error) {
	thread, _, errno := procCreateRemoteThread.Call(
		uintptr(proc), 0, 0, start, parameter, 0, 0,
	)
	if thread == 0 {
		return 0, fmt.Errorf("winapi: CreateRemoteThread: %w", errno)
	}
	return windows.Handle(thread), nil
}

// Resume resumes a process suspended by SpawnSuspended, after every
// detour has been reported armed via the "finished patching" IPC message
// (§4.10 step 5).
func (p *SuspendedProcess) Resume() error {
	h, _, errno := procOpenThread.Call(threadSuspendResume, 0, uintptr(p.ThreadID))
	if h == 0 {
		return fmt.Errorf("winapi: OpenThread: %w", errno)
	}
	defer windows.CloseHandle(windows.Handle(h))

	if ret, _, errno := procResumeThread.Call(h); ret == 0xFFFFFFFF {
		return fmt.Errorf("winapi: ResumeThread: %w", errno)
	}
	return nil
}

func buildCommandLine(path string, args []string) string {
	line := windows.EscapeArg(path)
	for _, a := range args {
		line += " " + windows.EscapeArg(a)
	}
	return line
}
