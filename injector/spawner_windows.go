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

package injector

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/winoverlay/winoverlay/winapi"
)

// winSpawner implements the injector package's spawner seam against the
// real Windows process-control surface, via winapi's thin wrappers —
// same split as the teacher keeping nsenter's actual syscalls out of
// process.go's orchestration logic.
type winSpawner struct{}

// NewWinSpawner returns the production spawner for injector.NewDriver.
func NewWinSpawner() spawner {
	return winSpawner{}
}

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procLoadLibraryW      = kernel32.NewProc("LoadLibraryW")
	procGetExitCodeThread = kernel32.NewProc("GetExitCodeThread")
	procWaitForSingleObj  = kernel32.NewProc("WaitForSingleObject")
)

const infinite = 0xFFFFFFFF

var suspended *winapi.SuspendedProcess

func (winSpawner) SpawnSuspended(path string, args []string, workingDir string) (ProcessHandle, uint32, error) {
	sp, err := winapi.SpawnSuspended(path, args, workingDir)
	if err != nil {
		return 0, 0, err
	}
	suspended = sp
	return ProcessHandle(sp.Handle), sp.ProcessID, nil
}

func (winSpawner) Attach(pid uint32) (ProcessHandle, error) {
	h, err := winapi.AttachByPID(pid)
	if err != nil {
		return 0, err
	}
	return ProcessHandle(h), nil
}

func (winSpawner) WriteRemote(proc ProcessHandle, data []byte) (uintptr, error) {
	return winapi.WriteRemote(windows.Handle(proc), data)
}

// LoadRemoteModule writes dllPath into the target and runs a remote
// thread at kernel32!LoadLibraryW, returning the loaded module's base
// address (its thread exit code). The exit code is 32 bits wide, so a
// module base above 4 GiB comes back truncated.
func (winSpawner) LoadRemoteModule(proc ProcessHandle, dllPath string) (uintptr, error) {
	pathUTF16, err := windows.UTF16FromString(dllPath)
	if err != nil {
		return 0, fmt.Errorf("injector: encoding dll path: %w", err)
	}
	raw := make([]byte, len(pathUTF16)*2)
	for i, u := range pathUTF16 {
		raw[2*i] = byte(u)
		raw[2*i+1] = byte(u >> 8)
	}

	addr, err := winapi.WriteRemote(windows.Handle(proc), raw)
	if err != nil {
		return 0, err
	}

	thread, err := winapi.RunRemoteThread(windows.Handle(proc), procLoadLibraryW.Addr(), addr)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(thread)

	procWaitForSingleObj.Call(uintptr(thread), infinite)

	var exitCode uint32
	procGetExitCodeThread.Call(uintptr(thread), uintptr(unsafe.Pointer(&exitCode)))
	if exitCode == 0 {
		return 0, fmt.Errorf("injector: LoadLibraryW returned NULL in target")
	}
	return uintptr(exitCode), nil
}

func (winSpawner) RunEntry(proc ProcessHandle, entryAddr, configAddr uintptr) (uint32, error) {
	thread, err := winapi.RunRemoteThread(windows.Handle(proc), entryAddr, configAddr)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(thread)

	procWaitForSingleObj.Call(uintptr(thread), infinite)

	var exitCode uint32
	procGetExitCodeThread.Call(uintptr(thread), uintptr(unsafe.Pointer(&exitCode)))
	return exitCode, nil
}

func (winSpawner) Resume(proc ProcessHandle) error {
	if suspended == nil {
		return fmt.Errorf("injector: Resume called with no suspended process on record")
	}
	return suspended.Resume()
}

func (winSpawner) Wait(proc ProcessHandle) error {
	procWaitForSingleObj.Call(uintptr(proc), infinite)
	return nil
}

// ResolveEntryRVA loads dllPath locally with a plain LoadLibrary (its
// dependencies and initialization run as for any load), finds Entry's
// address, and
// returns its offset from the local load base — the same offset the
// remote load will place Entry at, since both copies of the image carry
// identical section layout (only the base differs).
func (winSpawner) ResolveEntryRVA(dllPath string) (uintptr, error) {
	h, err := windows.LoadLibrary(dllPath)
	if err != nil {
		return 0, fmt.Errorf("injector: local LoadLibrary(%s): %w", dllPath, err)
	}
	defer windows.FreeLibrary(h)

	entryAddr, err := windows.GetProcAddress(h, "Entry")
	if err != nil {
		return 0, fmt.Errorf("injector: resolving Entry export: %w", err)
	}

	return entryAddr - uintptr(h), nil
}
